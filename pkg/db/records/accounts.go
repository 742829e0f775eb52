package records

import (
	"strings"
	"time"

	"github.com/case-framework/records-portal/pkg/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (dbService *RecordsDBService) CreateIndexForAccounts() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionAccounts().Indexes().CreateOne(
		ctx, mongo.IndexModel{
			Keys: bson.D{
				{Key: "email", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (dbService *RecordsDBService) CreateAccount(account Account) (Account, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	account.Email = normalizeEmail(account.Email)
	account.CreatedAt = time.Now()
	res, err := dbService.collectionAccounts().InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return account, ErrAccountExists
		}
		return account, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		account.ID = id
	}
	return account, nil
}

func (dbService *RecordsDBService) GetAccountByEmail(email string) (account Account, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	err = dbService.collectionAccounts().FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&account)
	return account, err
}

func (dbService *RecordsDBService) UpdateLastLogin(email string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionAccounts().UpdateOne(ctx,
		bson.M{"email": normalizeEmail(email)},
		bson.M{"$set": bson.M{"lastLoginAt": time.Now()}},
	)
	return err
}

func IsAccountNotFound(err error) bool {
	return db.IsNotFound(err)
}
