package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/scan-console/internal/archive"
	"github.com/pribylovaa/scan-console/internal/service"
)

func TestStatusFromService(t *testing.T) {
	exp := time.Unix(1700000000, 0)

	got := StatusFromService(service.Status{Authenticated: true, ExpiresAt: &exp, Notice: "n"})
	require.True(t, got.Authenticated)
	require.NotNil(t, got.ExpiresAt)
	require.EqualValues(t, 1700000000, *got.ExpiresAt)
	require.Equal(t, "n", got.Notice)

	require.Nil(t, StatusFromService(service.Status{}).ExpiresAt)
}

func TestDashboardFromService_EmptyIsNotNull(t *testing.T) {
	got := DashboardFromService(&service.Dashboard{})
	require.NotNil(t, got.Applications)
	require.Empty(t, got.Applications)
}

func TestArchiveFromObject(t *testing.T) {
	now := time.Unix(1000, 0)
	got := ArchiveFromObject(&archive.Object{Key: "k", URL: "u", Size: 3, Expires: time.Minute}, now)
	require.Equal(t, ArchiveResponse{Key: "k", URL: "u", Size: 3, ExpiresAt: 1060}, got)
}
