package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rtdacademy/roster-api/internal/models"
)

func TestListIssuesOnlyConflictedASNs(t *testing.T) {
	asns := newASNRepoStub()
	asns.records["111111111"] = models.ASNRecord{
		ASN:       "111111111",
		EmailKeys: datatypes.JSONMap{"jane,doe@example,com": true},
	}
	asns.records["222222222"] = models.ASNRecord{
		ASN: "222222222",
		EmailKeys: datatypes.JSONMap{
			"bob,roy@example,com": true,
			"rob,roy@example,com": true,
			"old,roy@example,com": false,
		},
	}

	svc := NewASNService(asns, testLogger())
	resp, err := svc.ListIssues(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)

	issue := resp.Items[0]
	require.Equal(t, "222222222", issue.ASN)
	require.Equal(t, []string{"bob,roy@example,com", "rob,roy@example,com"}, issue.CurrentOwners)
	require.Equal(t, []string{"bob.roy@example.com", "rob.roy@example.com"}, issue.Emails)
}

func TestListIssuesEmpty(t *testing.T) {
	svc := NewASNService(newASNRepoStub(), testLogger())

	resp, err := svc.ListIssues(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, resp.Total)
	require.Empty(t, resp.Items)
}
