package records

import (
	"context"
	"log/slog"
	"time"

	"github.com/case-framework/records-portal/pkg/db"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection names
const (
	COLLECTION_NAME_DOCUMENTS               = "documents"
	COLLECTION_NAME_DOCUMENT_VERSIONS       = "documentVersions"
	COLLECTION_NAME_QUESTIONNAIRES          = "questionnaires"
	COLLECTION_NAME_QUESTIONNAIRE_RESPONSES = "questionnaireResponses"
	COLLECTION_NAME_ACCOUNTS                = "accounts"
)

type RecordsDBService struct {
	DBClient        *mongo.Client
	timeout         int
	noCursorTimeout bool
	dbName          string
}

func NewRecordsDBService(configs db.DBConfig) (*RecordsDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer conCancel()
	if err := dbClient.Ping(ctx, nil); err != nil {
		return nil, err
	}

	recordsDBSc := &RecordsDBService{
		DBClient:        dbClient,
		timeout:         configs.Timeout,
		noCursorTimeout: configs.NoCursorTimeout,
		dbName:          configs.DBName,
	}

	if configs.RunIndexCreation {
		if err := recordsDBSc.CreateDefaultIndexes(); err != nil {
			slog.Error("Error creating indexes for records DB", slog.String("error", err.Error()))
		}
	}
	return recordsDBSc, nil
}

func (dbService *RecordsDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *RecordsDBService) collection(name string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.dbName).Collection(name)
}

func (dbService *RecordsDBService) collectionDocuments() *mongo.Collection {
	return dbService.collection(COLLECTION_NAME_DOCUMENTS)
}

func (dbService *RecordsDBService) collectionDocumentVersions() *mongo.Collection {
	return dbService.collection(COLLECTION_NAME_DOCUMENT_VERSIONS)
}

func (dbService *RecordsDBService) collectionQuestionnaires() *mongo.Collection {
	return dbService.collection(COLLECTION_NAME_QUESTIONNAIRES)
}

func (dbService *RecordsDBService) collectionQuestionnaireResponses() *mongo.Collection {
	return dbService.collection(COLLECTION_NAME_QUESTIONNAIRE_RESPONSES)
}

func (dbService *RecordsDBService) collectionAccounts() *mongo.Collection {
	return dbService.collection(COLLECTION_NAME_ACCOUNTS)
}

func (dbService *RecordsDBService) CreateDefaultIndexes() error {
	for _, create := range []func() error{
		dbService.CreateIndexForDocuments,
		dbService.CreateIndexForDocumentVersions,
		dbService.CreateIndexForQuestionnaires,
		dbService.CreateIndexForQuestionnaireResponses,
		dbService.CreateIndexForAccounts,
	} {
		if err := create(); err != nil {
			return err
		}
	}
	return nil
}

// DropIndexes removes the custom indexes of every collection.
func (dbService *RecordsDBService) DropIndexes() {
	ctx, cancel := dbService.getContext()
	defer cancel()

	for _, name := range []string{
		COLLECTION_NAME_DOCUMENTS,
		COLLECTION_NAME_DOCUMENT_VERSIONS,
		COLLECTION_NAME_QUESTIONNAIRES,
		COLLECTION_NAME_QUESTIONNAIRE_RESPONSES,
		COLLECTION_NAME_ACCOUNTS,
	} {
		indexes, err := db.ListCollectionIndexes(ctx, dbService.collection(name))
		if err != nil {
			slog.Error("Error listing indexes", slog.String("collection", name), slog.String("error", err.Error()))
			continue
		}
		for _, index := range db.IndexNames(indexes) {
			if _, err := dbService.collection(name).Indexes().DropOne(ctx, index); err != nil {
				slog.Error("Error dropping index", slog.String("collection", name), slog.String("index", index), slog.String("error", err.Error()))
			}
		}
	}
}

func (dbService *RecordsDBService) Close() error {
	ctx, cancel := dbService.getContext()
	defer cancel()
	return dbService.DBClient.Disconnect(ctx)
}
