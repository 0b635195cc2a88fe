/*
Package mongo provides a MongoDB-backed leave.Store.

LAYOUT:
  Each collection (users, leave requests, tasks) is kept as ONE document
  in the "collections" collection, keyed by name. Replace-all is then a
  single upserting ReplaceOne, which MongoDB applies atomically without a
  replica set. Closure days live one per document in "holidays".
*/
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/holiday"
	"github.com/warp/leave-planner/leave"
)

const (
	usersKey    = "users"
	requestsKey = "leave_requests"
	tasksKey    = "tasks"
)

type Store struct {
	client      *mongo.Client
	collections *mongo.Collection
	holidays    *mongo.Collection
	now         func() time.Time
}

var (
	_ leave.Store          = (*Store)(nil)
	_ holiday.ClosureStore = (*Store)(nil)
)

// New connects to uri and pings the primary.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:      client,
		collections: db.Collection("collections"),
		holidays:    db.Collection("holidays"),
		now:         time.Now,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type userDoc struct {
	ID              string `bson:"id"`
	Name            string `bson:"name"`
	Role            string `bson:"role"`
	PINHash         string `bson:"pin_hash,omitempty"`
	Color           string `bson:"color,omitempty"`
	AnnualLeaveDays int    `bson:"annual_leave_days"`
}

type requestDoc struct {
	ID              string     `bson:"id"`
	User            userDoc    `bson:"user"`
	StartDate       string     `bson:"start_date"`
	EndDate         string     `bson:"end_date"`
	Type            string     `bson:"type"`
	Reason          string     `bson:"reason,omitempty"`
	Status          string     `bson:"status,omitempty"`
	CreatedAt       time.Time  `bson:"created_at,omitempty"`
	CreatedByUserID string     `bson:"created_by_user_id,omitempty"`
	UpdatedAt       *time.Time `bson:"updated_at,omitempty"`
	UpdatedByUserID string     `bson:"updated_by_user_id,omitempty"`
}

type taskDoc struct {
	ID              string    `bson:"id"`
	Title           string    `bson:"title"`
	Details         string    `bson:"details,omitempty"`
	DueDate         string    `bson:"due_date,omitempty"`
	Status          string    `bson:"status,omitempty"`
	AssignedUserID  string    `bson:"assigned_user_id"`
	CreatedByUserID string    `bson:"created_by_user_id"`
	CreatedAt       time.Time `bson:"created_at,omitempty"`
}

type holidayDoc struct {
	Date string `bson:"_id"`
	Name string `bson:"name"`
}

// collectionDoc wraps a whole collection.
type collectionDoc[T any] struct {
	Key       string    `bson:"_id"`
	Items     []T       `bson:"items"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func loadItems[T any](ctx context.Context, coll *mongo.Collection, key string) ([]T, error) {
	var doc collectionDoc[T]
	err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", key, err)
	}
	return doc.Items, nil
}

func replaceItems[T any](ctx context.Context, coll *mongo.Collection, key string, items []T, now time.Time) error {
	doc := collectionDoc[T]{Key: key, Items: items, UpdatedAt: now}
	if doc.Items == nil {
		doc.Items = []T{}
	}
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) LoadUsers(ctx context.Context) ([]leave.User, error) {
	docs, err := loadItems[userDoc](ctx, s.collections, usersKey)
	if err != nil {
		return nil, err
	}
	users := make([]leave.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toUser())
	}
	return users, nil
}

func (s *Store) ReplaceUsers(ctx context.Context, users []leave.User) error {
	docs := make([]userDoc, 0, len(users))
	for _, u := range users {
		docs = append(docs, newUserDoc(u))
	}
	return replaceItems(ctx, s.collections, usersKey, docs, s.now())
}

func newUserDoc(u leave.User) userDoc {
	return userDoc{
		ID:              u.ID,
		Name:            u.Name,
		Role:            string(u.Role),
		PINHash:         u.PINHash,
		Color:           u.Color,
		AnnualLeaveDays: u.AnnualLeaveDays,
	}
}

func (d userDoc) toUser() leave.User {
	return leave.User{
		ID:              d.ID,
		Name:            d.Name,
		Role:            leave.Role(d.Role),
		PINHash:         d.PINHash,
		Color:           d.Color,
		AnnualLeaveDays: d.AnnualLeaveDays,
	}
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) LoadRequests(ctx context.Context) ([]leave.LeaveRequest, error) {
	docs, err := loadItems[requestDoc](ctx, s.collections, requestsKey)
	if err != nil {
		return nil, err
	}
	requests := make([]leave.LeaveRequest, 0, len(docs))
	for _, d := range docs {
		r, err := d.toRequest()
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return leave.NormalizeLoaded(requests, s.now()), nil
}

func (s *Store) ReplaceRequests(ctx context.Context, requests []leave.LeaveRequest) error {
	docs := make([]requestDoc, 0, len(requests))
	for _, r := range requests {
		docs = append(docs, newRequestDoc(r))
	}
	return replaceItems(ctx, s.collections, requestsKey, docs, s.now())
}

func newRequestDoc(r leave.LeaveRequest) requestDoc {
	return requestDoc{
		ID:              r.ID,
		User:            newUserDoc(r.User),
		StartDate:       r.StartDate.String(),
		EndDate:         r.EndDate.String(),
		Type:            string(r.Type),
		Reason:          r.Reason,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		CreatedByUserID: r.CreatedByUserID,
		UpdatedAt:       r.UpdatedAt,
		UpdatedByUserID: r.UpdatedByUserID,
	}
}

func (d requestDoc) toRequest() (leave.LeaveRequest, error) {
	start, err := generic.ParseDate(d.StartDate)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("request %s: %w", d.ID, err)
	}
	end, err := generic.ParseDate(d.EndDate)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("request %s: %w", d.ID, err)
	}
	return leave.LeaveRequest{
		ID:              d.ID,
		User:            d.User.toUser(),
		StartDate:       start,
		EndDate:         end,
		Type:            leave.LeaveType(d.Type),
		Reason:          d.Reason,
		Status:          leave.Status(d.Status),
		CreatedAt:       d.CreatedAt,
		CreatedByUserID: d.CreatedByUserID,
		UpdatedAt:       d.UpdatedAt,
		UpdatedByUserID: d.UpdatedByUserID,
	}, nil
}

// =============================================================================
// TASKS
// =============================================================================

func (s *Store) LoadTasks(ctx context.Context) ([]leave.Task, error) {
	docs, err := loadItems[taskDoc](ctx, s.collections, tasksKey)
	if err != nil {
		return nil, err
	}
	tasks := make([]leave.Task, 0, len(docs))
	for _, d := range docs {
		t := leave.Task{
			ID:              d.ID,
			Title:           d.Title,
			Details:         d.Details,
			Status:          leave.TaskStatus(d.Status),
			AssignedUserID:  d.AssignedUserID,
			CreatedByUserID: d.CreatedByUserID,
			CreatedAt:       d.CreatedAt,
		}
		if d.DueDate != "" {
			due, err := generic.ParseDate(d.DueDate)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", d.ID, err)
			}
			t.DueDate = &due
		}
		tasks = append(tasks, t)
	}
	return leave.NormalizeLoadedTasks(tasks, s.now()), nil
}

func (s *Store) ReplaceTasks(ctx context.Context, tasks []leave.Task) error {
	docs := make([]taskDoc, 0, len(tasks))
	for _, t := range tasks {
		d := taskDoc{
			ID:              t.ID,
			Title:           t.Title,
			Details:         t.Details,
			Status:          string(t.Status),
			AssignedUserID:  t.AssignedUserID,
			CreatedByUserID: t.CreatedByUserID,
			CreatedAt:       t.CreatedAt,
		}
		if t.DueDate != nil {
			d.DueDate = t.DueDate.String()
		}
		docs = append(docs, d)
	}
	return replaceItems(ctx, s.collections, tasksKey, docs, s.now())
}

// =============================================================================
// CLOSURE DAYS
// =============================================================================

func (s *Store) LoadClosures(ctx context.Context) ([]generic.Holiday, error) {
	cursor, err := s.holidays.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find holidays: %w", err)
	}
	var docs []holidayDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode holidays: %w", err)
	}

	holidays := make([]generic.Holiday, 0, len(docs))
	for _, d := range docs {
		date, err := generic.ParseDate(d.Date)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, generic.Holiday{Date: date, Name: d.Name, Custom: true})
	}
	return holidays, nil
}

func (s *Store) SaveClosure(ctx context.Context, h generic.Holiday) error {
	doc := holidayDoc{Date: h.Date.String(), Name: h.Name}
	if _, err := s.holidays.ReplaceOne(ctx, bson.M{"_id": doc.Date}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("save holiday: %w", err)
	}
	return nil
}

func (s *Store) DeleteClosure(ctx context.Context, date generic.TimePoint) error {
	if _, err := s.holidays.DeleteOne(ctx, bson.M{"_id": date.String()}); err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return nil
}
