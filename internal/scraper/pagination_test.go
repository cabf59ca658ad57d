package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/models"
)

func member(profileID string) models.MemberRecord {
	return models.MemberRecord{
		Name:         "member-" + profileID,
		Organization: "Acme",
		Role:         "Engineer",
		ProfileID:    profileID,
		ObservedAt:   time.Now().UTC(),
	}
}

func noopReveal(ctx context.Context) error { return nil }

func TestCollectUntil_StopsAtMaxSteps(t *testing.T) {
	p := NewPaginator(0, 3, 100, arbor.NewLogger())

	reveals := 0
	reveal := func(ctx context.Context) error {
		reveals++
		return nil
	}
	extract := func(ctx context.Context) ([]models.MemberRecord, error) {
		return []models.MemberRecord{member(fmt.Sprintf("p%d", reveals))}, nil
	}

	records, err := p.CollectUntil(context.Background(), reveal, extract)
	require.NoError(t, err)
	assert.Equal(t, 3, reveals)
	assert.Len(t, records, 3)
}

func TestCollectUntil_StopsAtResultCap(t *testing.T) {
	p := NewPaginator(0, 10, 2, arbor.NewLogger())

	extract := func(ctx context.Context) ([]models.MemberRecord, error) {
		return []models.MemberRecord{member("a"), member("b"), member("c")}, nil
	}

	records, err := p.CollectUntil(context.Background(), noopReveal, extract)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ProfileID)
	assert.Equal(t, "b", records[1].ProfileID)
}

func TestCollectUntil_DeduplicatesAcrossSteps(t *testing.T) {
	// Scroll-reveal keeps earlier cards in the document, so every step
	// re-extracts the full rendered set.
	p := NewPaginator(0, 3, 100, arbor.NewLogger())

	step := 0
	extract := func(ctx context.Context) ([]models.MemberRecord, error) {
		step++
		switch step {
		case 1:
			return []models.MemberRecord{member("a"), member("b")}, nil
		case 2:
			return []models.MemberRecord{member("a"), member("b"), member("c")}, nil
		default:
			return []models.MemberRecord{member("a"), member("b"), member("c")}, nil
		}
	}

	records, err := p.CollectUntil(context.Background(), noopReveal, extract)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ProfileID)
	assert.Equal(t, "c", records[2].ProfileID)
}

func TestCollectUntil_RevealErrorReturnsPartial(t *testing.T) {
	p := NewPaginator(0, 5, 100, arbor.NewLogger())

	boom := errors.New("scroll failed")
	step := 0
	reveal := func(ctx context.Context) error {
		step++
		if step == 3 {
			return boom
		}
		return nil
	}
	extract := func(ctx context.Context) ([]models.MemberRecord, error) {
		return []models.MemberRecord{member(fmt.Sprintf("p%d", step))}, nil
	}

	records, err := p.CollectUntil(context.Background(), reveal, extract)
	require.ErrorIs(t, err, boom)
	assert.Len(t, records, 2)
}

func TestCollectUntil_CancellationBetweenSteps(t *testing.T) {
	p := NewPaginator(0, 10, 100, arbor.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())

	step := 0
	extract := func(ctx context.Context) ([]models.MemberRecord, error) {
		step++
		if step == 2 {
			cancel()
		}
		return []models.MemberRecord{member(fmt.Sprintf("p%d", step))}, nil
	}

	records, err := p.CollectUntil(ctx, noopReveal, extract)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, records, 2)
}

func TestRevealMoreOn_ChecksCallerContextFirst(t *testing.T) {
	p := NewPaginator(0, 5, 100, arbor.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reveal := p.RevealMoreOn(context.Background())
	assert.ErrorIs(t, reveal(ctx), context.Canceled)
}
