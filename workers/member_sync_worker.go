// workers/member_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"club-platform/metrics"
	"club-platform/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile matches one entry of the identity service's profile feed.
type RemoteProfile struct {
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the feed response.
type GetProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// MemberSyncWorker pulls changed profiles from the identity service and
// mirrors display name and email into the users table.
type MemberSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://identity:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client

	mu    sync.Mutex
	since time.Time // newest remote updated_at seen
}

func NewMemberSyncWorker(db *gorm.DB, httpClient *http.Client, baseURL, endpointPath, serviceToken string, interval time.Duration) *MemberSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &MemberSyncWorker{
		db:           db,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   httpClient,
	}
}

func (w *MemberSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Member Sync Worker (identity service → users)…")
	go w.run(ctx)
}

func (w *MemberSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncOnce(ctx); err != nil {
		log.Printf("⚠️ [SYNC] Initial member sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				log.Printf("❌ [SYNC] Member sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Member Sync Worker stopped")
			return
		}
	}
}

func (w *MemberSyncWorker) Since() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.since
}

// SyncOnce fetches one batch of changes and upserts them. It returns how many
// users were written.
func (w *MemberSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	since := w.Since()
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid identity service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request to identity service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("identity service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode identity service response: %w", err)
	}
	if len(response.Users) == 0 {
		return 0, nil
	}

	var upserted, failed int
	latest := since
	for _, remote := range response.Users {
		if remote.UpdatedAt.After(latest) {
			latest = remote.UpdatedAt
		}
		externalID := strings.TrimSpace(remote.ExternalID)
		email := strings.ToLower(strings.TrimSpace(remote.Email))
		if externalID == "" || email == "" {
			failed++
			continue
		}
		name := strings.TrimSpace(remote.DisplayName)
		if name == "" {
			name = remote.Username
		}
		if name == "" {
			name = strings.Split(email, "@")[0]
		}

		local := models.User{
			ID:          uuid.NewString(),
			ExternalID:  externalID,
			DisplayName: name,
			Email:       email,
			Role:        models.RoleStudent,
		}
		if err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "email", "updated_at"}),
		}).Create(&local).Error; err != nil {
			failed++
			log.Printf("[SYNC] ⚠️ Failed to upsert user (external_id=%q): %v", externalID, err)
			continue
		}
		upserted++
	}

	w.mu.Lock()
	if latest.After(w.since) {
		w.since = latest
	}
	w.mu.Unlock()

	metrics.MemberSyncUpserts.Add(float64(upserted))
	log.Printf("[SYNC] ✅ Synced %d profile(s) (%d upserted, %d skipped/failed), cursor=%s",
		len(response.Users), upserted, failed, latest.UTC().Format(time.RFC3339))
	return upserted, nil
}
