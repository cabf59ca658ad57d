package main

import (
	"fmt"

	"github.com/ternarybob/vigilo/internal/common"
)

func printVersion() {
	fmt.Printf("Vigilo version %s\n", common.GetFullVersion())
}
