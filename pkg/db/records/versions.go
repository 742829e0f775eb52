package records

import (
	"github.com/case-framework/records-portal/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *RecordsDBService) CreateIndexForDocumentVersions() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionDocumentVersions().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "documentId", Value: 1},
					{Key: "version", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "timestamp", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "fileId", Value: 1},
				},
			},
		},
	)
	return err
}

// AddInitialVersion stores version 1 of a freshly created document.
func (dbService *RecordsDBService) AddInitialVersion(version Version) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionDocumentVersions().InsertOne(ctx, version)
	return err
}

// GetVersions lists the versions of a document in ascending order.
func (dbService *RecordsDBService) GetVersions(documentID string) (versions []Version, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "version", Value: 1}})
	if dbService.noCursorTimeout {
		opts.SetNoCursorTimeout(true)
	}
	cursor, err := dbService.collectionDocumentVersions().Find(ctx, bson.M{"documentId": documentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	versions = []Version{}
	err = cursor.All(ctx, &versions)
	return versions, err
}

func (dbService *RecordsDBService) GetVersion(documentID string, version int) (v Version, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	err = dbService.collectionDocumentVersions().FindOne(ctx, bson.M{"documentId": documentID, "version": version}).Decode(&v)
	if db.IsNotFound(err) {
		return v, ErrDocumentNotFound
	}
	return v, err
}

// GetVersionByFileID finds the version a stored content file belongs to.
func (dbService *RecordsDBService) GetVersionByFileID(fileID string) (v Version, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	err = dbService.collectionDocumentVersions().FindOne(ctx, bson.M{"fileId": fileID}).Decode(&v)
	return v, err
}

func IsVersionNotFound(err error) bool {
	return db.IsNotFound(err)
}
