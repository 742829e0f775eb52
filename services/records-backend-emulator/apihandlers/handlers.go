package apihandlers

import (
	"net/http"
	"time"

	"github.com/case-framework/records-portal/pkg/db/records"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"github.com/gin-gonic/gin"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RecordsStore is the persistence the emulator serves the REST contract
// from. *records.RecordsDBService implements it.
type RecordsStore interface {
	GetAccountByEmail(email string) (records.Account, error)
	UpdateLastLogin(email string) error
	CreateAccount(account records.Account) (records.Account, error)

	CreateDocument(doc records.Document) (records.Document, error)
	GetDocument(documentID string) (records.Document, error)
	GetDocuments(page int64, limit int64) ([]records.Document, *records.PaginationInfos, error)
	AcquireLock(documentID string, lock records.Lock) (records.Document, error)
	ReleaseLock(documentID string, lockID string) error
	ForceReleaseLock(documentID string) error
	Checkin(documentID string, lockID string, baseVersion int, saveBoth bool, version records.Version) (records.Version, error)
	AddInitialVersion(version records.Version) error
	GetVersions(documentID string) ([]records.Version, error)
	GetVersion(documentID string, version int) (records.Version, error)

	SaveQuestionnaire(q qtypes.Questionnaire) error
	GetQuestionnaire(questionnaireID string) (qtypes.Questionnaire, error)
	SaveResponses(userID string, submission qtypes.ResponseSubmission) (qtypes.ResponseRecord, error)
	GetResponses(userID string, questionnaireID string) ([]qtypes.ResponseRecord, error)
}

type HttpEndpoints struct {
	store               RecordsStore
	tokenSignKey        string
	tokenExpiresIn      time.Duration
	lockTTL             time.Duration
	filestorePath       string
	maxUploadSize       int64
	allowedContentTypes []string
	adminAPIKeys        []string
}

func NewHTTPHandler(
	store RecordsStore,
	tokenSignKey string,
	tokenExpiresIn time.Duration,
	lockTTL time.Duration,
	filestorePath string,
	maxUploadSize int64,
	allowedContentTypes []string,
	adminAPIKeys []string,
) *HttpEndpoints {
	return &HttpEndpoints{
		store:               store,
		tokenSignKey:        tokenSignKey,
		tokenExpiresIn:      tokenExpiresIn,
		lockTTL:             lockTTL,
		filestorePath:       filestorePath,
		maxUploadSize:       maxUploadSize,
		allowedContentTypes: allowedContentTypes,
		adminAPIKeys:        adminAPIKeys,
	}
}
