package records

import (
	"time"

	"github.com/case-framework/records-portal/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *RecordsDBService) CreateIndexForDocuments() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionDocuments().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "lock.expiresAt", Value: 1},
				},
				Options: options.Index().SetSparse(true),
			},
			{
				Keys: bson.D{
					{Key: "ownerId", Value: 1},
				},
			},
		},
	)
	return err
}

func (dbService *RecordsDBService) CreateDocument(doc Document) (Document, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.Lock = nil
	_, err := dbService.collectionDocuments().InsertOne(ctx, doc)
	return doc, err
}

func (dbService *RecordsDBService) GetDocument(documentID string) (doc Document, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	err = dbService.collectionDocuments().FindOne(ctx, bson.M{"_id": documentID}).Decode(&doc)
	if db.IsNotFound(err) {
		return doc, ErrDocumentNotFound
	}
	return doc, err
}

func (dbService *RecordsDBService) GetDocuments(page int64, limit int64) (docs []Document, paginationInfo *PaginationInfos, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	count, err := dbService.collectionDocuments().CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, nil, err
	}
	paginationInfo = prepPaginationInfos(count, page, limit)

	opts := options.Find()
	opts.SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	opts.SetSkip((paginationInfo.CurrentPage - 1) * paginationInfo.PageSize)
	opts.SetLimit(paginationInfo.PageSize)

	cursor, err := dbService.collectionDocuments().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, paginationInfo, err
	}
	defer cursor.Close(ctx)

	docs = []Document{}
	err = cursor.All(ctx, &docs)
	return docs, paginationInfo, err
}

// lockAvailableFilter matches the document when it has no lock or an
// expired one. An active lock blocks its own holder too.
func lockAvailableFilter(documentID string, now time.Time) bson.M {
	return bson.M{
		"_id": documentID,
		"$or": bson.A{
			bson.M{"lock": bson.M{"$exists": false}},
			bson.M{"lock": nil},
			bson.M{"lock.expiresAt": bson.M{"$lte": now}},
		},
	}
}

// AcquireLock atomically sets lock on the document if no active lock exists.
func (dbService *RecordsDBService) AcquireLock(documentID string, lock Lock) (Document, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc Document
	err := dbService.collectionDocuments().FindOneAndUpdate(
		ctx,
		lockAvailableFilter(documentID, lock.AcquiredAt),
		bson.M{"$set": bson.M{"lock": lock}},
		opts,
	).Decode(&doc)
	if err == nil {
		return doc, nil
	}
	if !db.IsNotFound(err) {
		return doc, err
	}

	if _, err := dbService.GetDocument(documentID); err != nil {
		return doc, err
	}
	return doc, ErrDocumentLocked
}

// ReleaseLock removes the lock if lockID is the active one.
func (dbService *RecordsDBService) ReleaseLock(documentID string, lockID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionDocuments().UpdateOne(ctx,
		bson.M{"_id": documentID, "lock.lockId": lockID},
		bson.M{"$unset": bson.M{"lock": ""}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		if _, err := dbService.GetDocument(documentID); err != nil {
			return err
		}
		return ErrLockMismatch
	}
	return nil
}

// ForceReleaseLock removes any lock of the document, whoever holds it.
func (dbService *RecordsDBService) ForceReleaseLock(documentID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionDocuments().UpdateOne(ctx,
		bson.M{"_id": documentID},
		bson.M{"$unset": bson.M{"lock": ""}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return ErrDocumentNotFound
	}
	return nil
}

// ReleaseExpiredLocks clears every lock that expired before now.
func (dbService *RecordsDBService) ReleaseExpiredLocks(now time.Time) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionDocuments().UpdateMany(ctx,
		bson.M{"lock.expiresAt": bson.M{"$lt": now}},
		bson.M{"$unset": bson.M{"lock": ""}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// checkinFilter selects the document only if lockID holds an active lock
// and, unless both versions are kept, baseVersion is the current version.
func checkinFilter(documentID string, lockID string, baseVersion int, saveBoth bool, now time.Time) bson.M {
	filter := bson.M{
		"_id":            documentID,
		"lock.lockId":    lockID,
		"lock.expiresAt": bson.M{"$gt": now},
	}
	if saveBoth {
		filter["currentVersion"] = bson.M{"$gte": baseVersion}
	} else {
		filter["currentVersion"] = baseVersion
	}
	return filter
}

// checkinFailure explains why the checkin filter did not match doc. A stale
// base version is reported before the lock, which may be gone by then.
func checkinFailure(doc Document, lockID string, baseVersion int, saveBoth bool, now time.Time) error {
	if baseVersion > doc.CurrentVersion {
		return ErrInvalidBaseVersion
	}
	if !saveBoth && baseVersion < doc.CurrentVersion {
		return ErrVersionConflict
	}
	if !doc.Lock.IsActive(now) || doc.Lock.LockID != lockID {
		return ErrLockMismatch
	}
	return nil
}

// Checkin advances the document to a new version and consumes the lock.
// With saveBoth a stale baseVersion is accepted and the new version is
// stored as a copy next to the conflicting one.
func (dbService *RecordsDBService) Checkin(documentID string, lockID string, baseVersion int, saveBoth bool, version Version) (Version, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	now := time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc Document
	err := dbService.collectionDocuments().FindOneAndUpdate(
		ctx,
		checkinFilter(documentID, lockID, baseVersion, saveBoth, now),
		bson.M{
			"$inc":   bson.M{"currentVersion": 1},
			"$unset": bson.M{"lock": ""},
			"$set":   bson.M{"updatedAt": now},
		},
		opts,
	).Decode(&doc)
	if err != nil {
		if !db.IsNotFound(err) {
			return version, err
		}
		current, getErr := dbService.GetDocument(documentID)
		if getErr != nil {
			return version, getErr
		}
		if reason := checkinFailure(current, lockID, baseVersion, saveBoth, now); reason != nil {
			return version, reason
		}
		return version, ErrVersionConflict
	}

	version.DocumentID = documentID
	version.Version = doc.CurrentVersion
	version.Timestamp = now
	if saveBoth && baseVersion < doc.CurrentVersion-1 {
		version.ConflictCopyOf = baseVersion
	}
	if _, err := dbService.collectionDocumentVersions().InsertOne(ctx, version); err != nil {
		return version, err
	}
	return version, nil
}
