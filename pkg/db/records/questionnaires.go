package records

import (
	"time"

	"github.com/case-framework/records-portal/pkg/db"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *RecordsDBService) CreateIndexForQuestionnaires() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionQuestionnaires().Indexes().CreateOne(
		ctx, mongo.IndexModel{
			Keys: bson.D{
				{Key: "id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	)
	return err
}

func (dbService *RecordsDBService) CreateIndexForQuestionnaireResponses() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionQuestionnaireResponses().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "userId", Value: 1},
					{Key: "questionnaireId", Value: 1},
					{Key: "isCompleted", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "updatedAt", Value: 1},
				},
			},
		},
	)
	return err
}

// SaveQuestionnaire creates or replaces a questionnaire definition.
func (dbService *RecordsDBService) SaveQuestionnaire(q qtypes.Questionnaire) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionQuestionnaires().ReplaceOne(ctx,
		bson.M{"id": q.ID},
		q,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (dbService *RecordsDBService) GetQuestionnaire(questionnaireID string) (q qtypes.Questionnaire, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	err = dbService.collectionQuestionnaires().FindOne(ctx, bson.M{"id": questionnaireID}).Decode(&q)
	return q, err
}

// SaveResponses updates the open draft of the user for the questionnaire,
// or starts a new response record when there is none.
func (dbService *RecordsDBService) SaveResponses(userID string, submission qtypes.ResponseSubmission) (record qtypes.ResponseRecord, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"userId":          userID,
		"questionnaireId": submission.QuestionnaireID,
		"isCompleted":     false,
	}
	update := bson.M{
		"$set": bson.M{
			"responses":   submission.Responses,
			"isCompleted": submission.IsCompleted,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err = dbService.collectionQuestionnaireResponses().FindOneAndUpdate(ctx, filter, update, opts).Decode(&record)
	return record, err
}

func (dbService *RecordsDBService) GetResponses(userID string, questionnaireID string) (records []qtypes.ResponseRecord, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"userId": userID}
	if questionnaireID != "" {
		filter["questionnaireId"] = questionnaireID
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := dbService.collectionQuestionnaireResponses().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records = []qtypes.ResponseRecord{}
	err = cursor.All(ctx, &records)
	return records, err
}

func IsQuestionnaireNotFound(err error) bool {
	return db.IsNotFound(err)
}
