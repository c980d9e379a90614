package models

import (
	"time"

	"github.com/pribylovaa/scan-console/internal/archive"
	"github.com/pribylovaa/scan-console/internal/service"
)

func (m SessionLoginRequest) ToInput() service.LoginInput {
	return service.LoginInput{
		Username: m.Username,
		Password: m.Password,
	}
}

func LoginFromService(r *service.LoginResult) SessionLoginResponse {
	return SessionLoginResponse{
		MustChangePassword: r.MustChangePassword,
		ExpiresAt:          unixPtr(r.ExpiresAt),
	}
}

func StatusFromService(s service.Status) SessionStatus {
	return SessionStatus{
		Authenticated: s.Authenticated,
		ExpiresAt:     unixPtr(s.ExpiresAt),
		Notice:        s.Notice,
	}
}

func DashboardFromService(d *service.Dashboard) Dashboard {
	out := Dashboard{
		Applications: make([]AppSummary, 0, len(d.Applications)),
		Total:        d.Total,
		BySeverity:   d.BySeverity,
	}

	for _, a := range d.Applications {
		out.Applications = append(out.Applications, AppSummary{
			ID:         string(a.ID),
			Name:       a.Name,
			Platform:   a.Platform,
			Total:      a.Total,
			BySeverity: a.BySeverity,
		})
	}

	return out
}

func ArchiveFromObject(o *archive.Object, now time.Time) ArchiveResponse {
	return ArchiveResponse{
		Key:       o.Key,
		URL:       o.URL,
		Size:      o.Size,
		ExpiresAt: now.Add(o.Expires).UTC().Unix(),
	}
}

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}

	v := t.UTC().Unix()
	return &v
}
