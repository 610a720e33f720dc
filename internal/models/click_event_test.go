package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeDedupeHash(t *testing.T) {
	clicked := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

	event := ClickEvent{
		UsersGuid:    "u-123",
		CampaignGuid: "c-456",
		EmailNorm:    "jane.doe@example.com",
		DateClicked:  &clicked,
	}

	first := event.ComputeDedupeHash()
	require.Len(t, first, 64)
	require.Equal(t, first, event.ComputeDedupeHash(), "hash must be stable across calls")

	same := event
	sameClicked := clicked.In(time.FixedZone("IST", 5*3600+1800))
	same.DateClicked = &sameClicked
	require.Equal(t, first, same.ComputeDedupeHash(), "hash must not depend on timestamp zone")

	other := event
	other.EmailNorm = "john.doe@example.com"
	require.NotEqual(t, first, other.ComputeDedupeHash())

	noClick := event
	noClick.DateClicked = nil
	require.NotEqual(t, first, noClick.ComputeDedupeHash())
	require.Equal(t, noClick.ComputeDedupeHash(), noClick.ComputeDedupeHash())
}
