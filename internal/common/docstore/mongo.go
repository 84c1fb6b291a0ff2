// internal/common/docstore/mongo.go
package docstore

import (
	"context"
	"errors"
	"fmt"

	"clinic-notify-workers/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	doctorsCollection               = "doctors"
	scheduledAppointmentsCollection = "scheduled_appointments"
)

// MongoStore implements Store on the MongoDB driver.
type MongoStore struct {
	doctors   *mongo.Collection
	scheduled *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		doctors:   db.Collection(doctorsCollection),
		scheduled: db.Collection(scheduledAppointmentsCollection),
	}
}

func (s *MongoStore) GetDoctor(ctx context.Context, facilityID, specializationID, doctorID string) (*models.Doctor, error) {
	filter := bson.M{
		"facilityId":       facilityID,
		"specializationId": specializationID,
		"doctorId":         doctorID,
	}
	var doc models.Doctor
	err := s.doctors.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find doctor %s: %w", doctorID, err)
	}
	return &doc, nil
}

type scheduledRecord struct {
	ID              interface{} `bson:"_id"`
	AppointmentDate string      `bson:"appointmentDate"`
	PatientPhone    string      `bson:"patientPhone"`
	DoctorName      string      `bson:"doctorName"`
	Status          string      `bson:"status"`
	ReminderSent    bool        `bson:"reminderSent"`
}

func (s *MongoStore) ListPendingReminders(ctx context.Context) ([]models.ScheduledAppointment, error) {
	filter := bson.M{"status": models.StatusScheduled, "reminderSent": false}
	cursor, err := s.scheduled.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find pending reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.ScheduledAppointment
	for cursor.Next(ctx) {
		var rec scheduledRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode pending reminder: %w", err)
		}
		out = append(out, models.ScheduledAppointment{
			ID:              idString(rec.ID),
			AppointmentDate: rec.AppointmentDate,
			PatientPhone:    rec.PatientPhone,
			DoctorName:      rec.DoctorName,
			Status:          rec.Status,
			ReminderSent:    rec.ReminderSent,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending reminders: %w", err)
	}
	return out, nil
}

func (s *MongoStore) MarkReminderSent(ctx context.Context, id string) error {
	filter := bson.M{"_id": idValue(id), "reminderSent": false}
	update := bson.M{
		"$set":         bson.M{"reminderSent": true},
		"$currentDate": bson.M{"reminderSentAt": true},
	}
	res, err := s.scheduled.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mark reminder sent %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoPendingRecord
	}
	return nil
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// idValue restores an ObjectID when the string is a valid hex id.
func idValue(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
