package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

const (
	colUsers         = "users"
	colDoctors       = "doctors"
	colPatients      = "patients"
	colAppointments  = "appointments"
	colMessages      = "messages"
	colNotifications = "notifications"
	colCounters      = "counters"
)

// NewMongo returns repositories backed by the given MongoDB database.
func NewMongo(db *mongo.Database) Repositories {
	counters := db.Collection(colCounters)
	return Repositories{
		Users:         mongoUsers{db.Collection(colUsers)},
		Doctors:       mongoDoctors{db.Collection(colDoctors)},
		Patients:      mongoPatients{db.Collection(colPatients)},
		Appointments:  mongoAppointments{db.Collection(colAppointments), counters},
		Messages:      mongoMessages{db.Collection(colMessages), counters},
		Notifications: mongoNotifications{db.Collection(colNotifications), counters},
	}
}

// EnsureMongoIndexes creates the indexes the repositories rely on. The unique
// email index is what enforces ErrDuplicate on signup.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colAppointments: {
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "status", Value: 1}}},
		},
		colMessages: {
			{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}, {Key: "seq", Value: 1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "seq", Value: -1}}},
		},
	}
	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func mongoErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

// nextSeq atomically increments the named counter document and returns the
// new value. Sequences stay monotonic across API instances sharing a database.
func nextSeq(ctx context.Context, counters *mongo.Collection, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", name, err)
	}
	return doc.Seq, nil
}

// newestFirst orders by creation time, then by insertion sequence.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "seq", Value: -1}}

// replaceVersioned swaps the stored document for doc when the stored version
// equals expected.
func replaceVersioned(ctx context.Context, coll *mongo.Collection, id string, expected int64, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id, "version": expected}, doc)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

// -- Users --

type mongoUsers struct{ coll *mongo.Collection }

func (r mongoUsers) Create(ctx context.Context, u *models.User) error {
	_, err := r.coll.InsertOne(ctx, u)
	return mongoErr(err)
}

func (r mongoUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mongoErr(err)
	}
	return &u, nil
}

func (r mongoUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mongoErr(err)
	}
	return &u, nil
}

func (r mongoUsers) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoUsers) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

// -- Doctors --

type mongoDoctors struct{ coll *mongo.Collection }

func (r mongoDoctors) Create(ctx context.Context, d *models.Doctor) error {
	d.Version = 1
	_, err := r.coll.InsertOne(ctx, d)
	return mongoErr(err)
}

func (r mongoDoctors) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	var d models.Doctor
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, mongoErr(err)
	}
	return &d, nil
}

func (r mongoDoctors) Update(ctx context.Context, d *models.Doctor) error {
	next := *d
	next.Version = d.Version + 1
	if err := replaceVersioned(ctx, r.coll, d.ID, d.Version, &next); err != nil {
		return err
	}
	d.Version = next.Version
	return nil
}

func (r mongoDoctors) List(ctx context.Context, approvedOnly bool) ([]*models.Doctor, error) {
	filter := bson.M{}
	if approvedOnly {
		filter["isApproved"] = true
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	doctors := make([]*models.Doctor, 0)
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// -- Patients --

type mongoPatients struct{ coll *mongo.Collection }

func (r mongoPatients) Create(ctx context.Context, p *models.Patient) error {
	_, err := r.coll.InsertOne(ctx, p)
	return mongoErr(err)
}

func (r mongoPatients) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	var p models.Patient
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mongoErr(err)
	}
	return &p, nil
}

// -- Appointments --

type mongoAppointments struct{ coll, counters *mongo.Collection }

func (r mongoAppointments) Create(ctx context.Context, a *models.Appointment) error {
	seq, err := nextSeq(ctx, r.counters, colAppointments)
	if err != nil {
		return err
	}
	a.Seq = seq
	a.Version = 1
	_, err = r.coll.InsertOne(ctx, a)
	return mongoErr(err)
}

func (r mongoAppointments) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mongoErr(err)
	}
	return &a, nil
}

func (r mongoAppointments) Update(ctx context.Context, a *models.Appointment) error {
	next := cloneAppointment(a)
	next.Version = a.Version + 1
	if err := replaceVersioned(ctx, r.coll, a.ID, a.Version, next); err != nil {
		return err
	}
	a.Version = next.Version
	return nil
}

func (r mongoAppointments) List(ctx context.Context, f models.AppointmentFilter) ([]*models.Appointment, error) {
	filter := bson.M{}
	if f.DoctorID != "" {
		filter["doctorId"] = f.DoctorID
	}
	if f.PatientID != "" {
		filter["patientId"] = f.PatientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	appointments := make([]*models.Appointment, 0)
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// -- Messages --

type mongoMessages struct{ coll, counters *mongo.Collection }

func (r mongoMessages) Create(ctx context.Context, m *models.Message) error {
	seq, err := nextSeq(ctx, r.counters, colMessages)
	if err != nil {
		return err
	}
	m.Seq = seq
	_, err = r.coll.InsertOne(ctx, m)
	return mongoErr(err)
}

func (r mongoMessages) ListBetween(ctx context.Context, a, b string) ([]*models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": a, "receiverId": b},
		bson.M{"senderId": b, "receiverId": a},
	}}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]*models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// -- Notifications --

type mongoNotifications struct{ coll, counters *mongo.Collection }

func (r mongoNotifications) Create(ctx context.Context, n *models.Notification) error {
	seq, err := nextSeq(ctx, r.counters, colNotifications)
	if err != nil {
		return err
	}
	n.Seq = seq
	_, err = r.coll.InsertOne(ctx, n)
	return mongoErr(err)
}

func (r mongoNotifications) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, mongoErr(err)
	}
	return &n, nil
}

func (r mongoNotifications) MarkRead(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r mongoNotifications) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := make([]*models.Notification, 0)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}
