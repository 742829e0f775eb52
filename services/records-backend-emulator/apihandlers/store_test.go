package apihandlers

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/case-framework/records-portal/pkg/db/records"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memoryStore mirrors the compare-and-set rules of the mongo store.
type memoryStore struct {
	mu             sync.Mutex
	accounts       map[string]records.Account
	documents      map[string]records.Document
	versions       map[string][]records.Version
	questionnaires map[string]qtypes.Questionnaire
	responses      []qtypes.ResponseRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts:       map[string]records.Account{},
		documents:      map[string]records.Document{},
		versions:       map[string][]records.Version{},
		questionnaires: map[string]qtypes.Questionnaire{},
	}
}

func (s *memoryStore) GetAccountByEmail(email string) (records.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return a, mongo.ErrNoDocuments
	}
	return a, nil
}

func (s *memoryStore) UpdateLastLogin(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[strings.ToLower(email)]
	a.LastLoginAt = time.Now()
	s.accounts[strings.ToLower(email)] = a
	return nil
}

func (s *memoryStore) CreateAccount(account records.Account) (records.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account.Email = strings.ToLower(account.Email)
	if _, ok := s.accounts[account.Email]; ok {
		return account, records.ErrAccountExists
	}
	account.ID = primitive.NewObjectID()
	s.accounts[account.Email] = account
	return account, nil
}

func (s *memoryStore) CreateDocument(doc records.Document) (records.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.CreatedAt = time.Now()
	s.documents[doc.ID] = doc
	return doc, nil
}

func (s *memoryStore) GetDocument(documentID string) (records.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return doc, records.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *memoryStore) GetDocuments(page int64, limit int64) ([]records.Document, *records.PaginationInfos, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := []records.Document{}
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	total := int64(len(docs))
	info := &records.PaginationInfos{
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		PageSize:    limit,
	}
	start := (page - 1) * limit
	if start >= total {
		return []records.Document{}, info, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return docs[start:end], info, nil
}

func (s *memoryStore) ForceReleaseLock(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return records.ErrDocumentNotFound
	}
	doc.Lock = nil
	s.documents[documentID] = doc
	return nil
}

func (s *memoryStore) AcquireLock(documentID string, lock records.Lock) (records.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return doc, records.ErrDocumentNotFound
	}
	if doc.Lock.IsActive(lock.AcquiredAt) {
		return doc, records.ErrDocumentLocked
	}
	doc.Lock = &lock
	s.documents[documentID] = doc
	return doc, nil
}

func (s *memoryStore) ReleaseLock(documentID string, lockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return records.ErrDocumentNotFound
	}
	if doc.Lock == nil || doc.Lock.LockID != lockID {
		return records.ErrLockMismatch
	}
	doc.Lock = nil
	s.documents[documentID] = doc
	return nil
}

func (s *memoryStore) Checkin(documentID string, lockID string, baseVersion int, saveBoth bool, version records.Version) (records.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return version, records.ErrDocumentNotFound
	}
	now := time.Now()
	switch {
	case baseVersion > doc.CurrentVersion:
		return version, records.ErrInvalidBaseVersion
	case !saveBoth && baseVersion < doc.CurrentVersion:
		return version, records.ErrVersionConflict
	case !doc.Lock.IsActive(now) || doc.Lock.LockID != lockID:
		return version, records.ErrLockMismatch
	}

	previous := doc.CurrentVersion
	doc.CurrentVersion++
	doc.Lock = nil
	s.documents[documentID] = doc

	version.DocumentID = documentID
	version.Version = doc.CurrentVersion
	version.Timestamp = now
	if saveBoth && baseVersion < previous {
		version.ConflictCopyOf = baseVersion
	}
	s.versions[documentID] = append(s.versions[documentID], version)
	return version, nil
}

func (s *memoryStore) AddInitialVersion(version records.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[version.DocumentID] = append(s.versions[version.DocumentID], version)
	return nil
}

func (s *memoryStore) GetVersions(documentID string) ([]records.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]records.Version{}, s.versions[documentID]...), nil
}

func (s *memoryStore) GetVersion(documentID string, version int) (records.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[documentID] {
		if v.Version == version {
			return v, nil
		}
	}
	return records.Version{}, records.ErrDocumentNotFound
}

func (s *memoryStore) SaveQuestionnaire(q qtypes.Questionnaire) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionnaires[q.ID] = q
	return nil
}

func (s *memoryStore) GetQuestionnaire(questionnaireID string) (qtypes.Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questionnaires[questionnaireID]
	if !ok {
		return q, mongo.ErrNoDocuments
	}
	return q, nil
}

func (s *memoryStore) SaveResponses(userID string, submission qtypes.ResponseSubmission) (qtypes.ResponseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for i, r := range s.responses {
		if r.UserID == userID && r.QuestionnaireID == submission.QuestionnaireID && !r.IsCompleted {
			r.Responses = submission.Responses
			r.IsCompleted = submission.IsCompleted
			r.UpdatedAt = now
			s.responses[i] = r
			return r, nil
		}
	}
	r := qtypes.ResponseRecord{
		ID:              uuid.NewString(),
		QuestionnaireID: submission.QuestionnaireID,
		UserID:          userID,
		Responses:       submission.Responses,
		IsCompleted:     submission.IsCompleted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.responses = append(s.responses, r)
	return r, nil
}

func (s *memoryStore) GetResponses(userID string, questionnaireID string) ([]qtypes.ResponseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []qtypes.ResponseRecord{}
	for _, r := range s.responses {
		if r.UserID == userID && (questionnaireID == "" || r.QuestionnaireID == questionnaireID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryStore) setCurrentVersion(documentID string, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.documents[documentID]
	doc.CurrentVersion = v
	s.documents[documentID] = doc
}
