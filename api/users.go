package api

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionUsers is the Mongo collection API accounts are stored in.
const CollectionUsers = "users"

// User is an API account. Only Login/Register need this; scan operators
// authenticate once and every request after that carries a bearer token.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password string             `bson:"password"`
	Role     string             `bson:"role"`
}

// Users wraps the user account collection, adapted from UserService.
type Users struct {
	collection *mongo.Collection
}

// NewUsers wraps an already-open collection handle.
func NewUsers(collection *mongo.Collection) *Users {
	return &Users{collection: collection}
}

const queryTimeout = 10 * time.Second

// Register creates a new account with role "operator", matching
// UserService.Register's duplicate-username check and bcrypt hashing.
func (u *Users) Register(ctx context.Context, username, password string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var existing User
	err := u.collection.FindOne(ctx, bson.M{"username": username}).Decode(&existing)
	if err == nil {
		return nil, errors.New("username already exists")
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Password: hashed,
		Role:     "operator",
	}
	if _, err := u.collection.InsertOne(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies username/password and returns the matching account.
func (u *Users) Login(ctx context.Context, username, password string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user User
	if err := u.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Connect dials uri and returns Users bound to dbName's CollectionUsers.
func Connect(ctx context.Context, uri, dbName string) (*Users, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return NewUsers(client.Database(dbName).Collection(CollectionUsers)), nil
}
