// Package recordsclient is the typed client of the records backend REST API.
package recordsclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/case-framework/records-portal/pkg/cache"
	doctypes "github.com/case-framework/records-portal/pkg/documents/types"
	httpclient "github.com/case-framework/records-portal/pkg/http-client"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"github.com/case-framework/records-portal/pkg/session"
)

const (
	STRATEGY_SAVE_BOTH = "save_both"

	routeCheckout      = "/documents/:id/checkout"
	routeStatus        = "/documents/:id/status"
	routeCheckin       = "/documents/:id/checkin"
	routeVersions      = "/documents/:id/versions"
	routeQuestionnaire = "/questionnaires/:id"
	routeResponses     = "/questionnaires/responses"
	routeLogin         = "/auth/login"
)

var ErrEmptyContent = errors.New("document content is empty")

type CheckinRequest struct {
	DocumentID  string
	LockID      string
	BaseVersion int
	Content     []byte
	ContentType string
	SaveBoth    bool
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type checkoutData struct {
	LockID  string `json:"lockId"`
	Version int    `json:"version"`
}

type RecordsClient struct {
	httpClient *httpclient.Client
	cache      cache.Cache
}

// NewRecordsClient wraps httpClient; c may be nil to disable read caching.
func NewRecordsClient(httpClient *httpclient.Client, c cache.Cache) *RecordsClient {
	return &RecordsClient{
		httpClient: httpClient,
		cache:      c,
	}
}

func documentPath(documentID string, suffix string) string {
	return "/documents/" + url.PathEscape(documentID) + suffix
}

func (rc *RecordsClient) Checkout(ctx context.Context, sess *session.Context, documentID string) (doctypes.DocumentLock, error) {
	if err := sess.Require(); err != nil {
		return doctypes.DocumentLock{}, err
	}
	env, err := rc.httpClient.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   documentPath(documentID, "/checkout"),
		Route:  routeCheckout,
		Token:  sess.Token,
	})
	if err != nil {
		return doctypes.DocumentLock{}, err
	}
	var data checkoutData
	if err := env.DecodeData(&data); err != nil {
		slog.Error("could not decode checkout response", slog.String("documentID", documentID), slog.String("error", err.Error()))
		return doctypes.DocumentLock{}, err
	}
	rc.invalidate(ctx, cache.DocumentTag(documentID))

	return doctypes.DocumentLock{
		DocumentID:  documentID,
		LockID:      data.LockID,
		BaseVersion: data.Version,
	}, nil
}

func (rc *RecordsClient) GetStatus(ctx context.Context, sess *session.Context, documentID string) (doctypes.LockStatus, error) {
	if err := sess.Require(); err != nil {
		return doctypes.LockStatus{}, err
	}
	env, err := rc.httpClient.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   documentPath(documentID, "/status"),
		Route:  routeStatus,
		Token:  sess.Token,
	})
	if err != nil {
		return doctypes.LockStatus{}, err
	}
	var status doctypes.LockStatus
	if err := env.DecodeData(&status); err != nil {
		return doctypes.LockStatus{}, err
	}
	return status, nil
}

func (rc *RecordsClient) Checkin(ctx context.Context, sess *session.Context, req CheckinRequest) (doctypes.DocumentVersion, error) {
	if err := sess.Require(); err != nil {
		return doctypes.DocumentVersion{}, err
	}
	if len(req.Content) == 0 {
		return doctypes.DocumentVersion{}, ErrEmptyContent
	}

	query := url.Values{}
	query.Set("baseVersion", strconv.Itoa(req.BaseVersion))
	query.Set("lockId", req.LockID)
	if req.SaveBoth {
		query.Set("strategy", STRATEGY_SAVE_BOTH)
	}

	env, err := rc.httpClient.Do(ctx, httpclient.Request{
		Method:      http.MethodPut,
		Path:        documentPath(req.DocumentID, "/checkin"),
		Route:       routeCheckin,
		Query:       query,
		RawBody:     req.Content,
		ContentType: req.ContentType,
		Token:       sess.Token,
	})
	if err != nil {
		return doctypes.DocumentVersion{}, err
	}
	rc.invalidate(ctx, cache.DocumentTag(req.DocumentID))

	var version doctypes.DocumentVersion
	if err := env.DecodeData(&version); err != nil {
		slog.Warn("checkin response without version", slog.String("documentID", req.DocumentID), slog.String("error", err.Error()))
		return doctypes.DocumentVersion{}, nil
	}
	return version, nil
}

// ReleaseLock gives up a lock without checking in.
func (rc *RecordsClient) ReleaseLock(ctx context.Context, sess *session.Context, documentID string, lockID string) error {
	if err := sess.Require(); err != nil {
		return err
	}
	query := url.Values{}
	query.Set("lockId", lockID)
	_, err := rc.httpClient.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   documentPath(documentID, "/checkout"),
		Route:  routeCheckout,
		Query:  query,
		Token:  sess.Token,
	})
	if err != nil {
		return err
	}
	rc.invalidate(ctx, cache.DocumentTag(documentID))
	return nil
}

func (rc *RecordsClient) GetVersions(ctx context.Context, sess *session.Context, documentID string) ([]doctypes.DocumentVersion, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	cacheKey := "versions:" + documentID
	var versions []doctypes.DocumentVersion
	if ok, err := cache.GetJSON(ctx, rc.cache, cacheKey, &versions); err != nil {
		slog.Warn("cache read failed", slog.String("key", cacheKey), slog.String("error", err.Error()))
	} else if ok {
		return versions, nil
	}

	env, err := rc.httpClient.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   documentPath(documentID, "/versions"),
		Route:  routeVersions,
		Token:  sess.Token,
	})
	if err != nil {
		return nil, err
	}
	versions = []doctypes.DocumentVersion{}
	if err := env.DecodeData(&versions); err != nil && !errors.Is(err, httpclient.ErrEmptyData) {
		return nil, err
	}

	if err := cache.SetJSON(ctx, rc.cache, cacheKey, versions, cache.DocumentTag(documentID)); err != nil {
		slog.Warn("cache write failed", slog.String("key", cacheKey), slog.String("error", err.Error()))
	}
	return versions, nil
}

func (rc *RecordsClient) GetQuestionnaire(ctx context.Context, sess *session.Context, questionnaireID string) (qtypes.Questionnaire, error) {
	if err := sess.Require(); err != nil {
		return qtypes.Questionnaire{}, err
	}
	cacheKey := "questionnaire:" + questionnaireID
	var q qtypes.Questionnaire
	if ok, err := cache.GetJSON(ctx, rc.cache, cacheKey, &q); err != nil {
		slog.Warn("cache read failed", slog.String("key", cacheKey), slog.String("error", err.Error()))
	} else if ok {
		return q, nil
	}

	env, err := rc.httpClient.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/questionnaires/" + url.PathEscape(questionnaireID),
		Route:  routeQuestionnaire,
		Token:  sess.Token,
	})
	if err != nil {
		return qtypes.Questionnaire{}, err
	}
	if err := env.DecodeData(&q); err != nil {
		return qtypes.Questionnaire{}, err
	}

	if err := cache.SetJSON(ctx, rc.cache, cacheKey, q, cache.QuestionnaireTag(questionnaireID)); err != nil {
		slog.Warn("cache write failed", slog.String("key", cacheKey), slog.String("error", err.Error()))
	}
	return q, nil
}

func (rc *RecordsClient) SubmitResponses(ctx context.Context, sess *session.Context, submission qtypes.ResponseSubmission) (qtypes.ResponseRecord, error) {
	if err := sess.Require(); err != nil {
		return qtypes.ResponseRecord{}, err
	}
	env, err := rc.httpClient.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    routeResponses,
		Route:   routeResponses,
		Payload: submission,
		Token:   sess.Token,
	})
	if err != nil {
		return qtypes.ResponseRecord{}, err
	}
	rc.invalidate(ctx, cache.QuestionnaireTag(submission.QuestionnaireID))

	var record qtypes.ResponseRecord
	if err := env.DecodeData(&record); err != nil {
		return qtypes.ResponseRecord{}, err
	}
	return record, nil
}

// Login exchanges credentials for a bearer token.
func (rc *RecordsClient) Login(ctx context.Context, email string, password string) (LoginResponse, error) {
	env, err := rc.httpClient.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   routeLogin,
		Route:  routeLogin,
		Payload: map[string]string{
			"email":    email,
			"password": password,
		},
	})
	if err != nil {
		return LoginResponse{}, err
	}
	var resp LoginResponse
	if err := env.DecodeData(&resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

func (rc *RecordsClient) invalidate(ctx context.Context, tag string) {
	if rc.cache == nil {
		return
	}
	if err := rc.cache.InvalidateTag(ctx, tag); err != nil {
		slog.Warn("cache invalidation failed", slog.String("tag", tag), slog.String("error", err.Error()))
	}
}
