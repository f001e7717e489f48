package database

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/model"
)

// Database persists device registrations and the property value history.
// It implements the publisher backend interface, so the core announces
// straight into it.
type Database struct {
	conn *pgx.Conn
	io.Closer
}

func NewDatabase(conn *pgx.Conn) *Database {
	return &Database{
		conn: conn,
	}
}

func (db *Database) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close(context.Background())
}

func (db *Database) RegisterDevice(ctx context.Context, device model.Device) error {
	_, err := db.conn.Exec(ctx, `
		INSERT INTO devices (id)
		VALUES ($1)
		ON CONFLICT DO NOTHING;`, device.ID)
	return err
}

func (db *Database) RegisterProperty(ctx context.Context, deviceID string, desc model.PropertyDescriptor) error {
	_, err := db.conn.Exec(ctx, `
		INSERT INTO properties (device_id, name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id, name) DO NOTHING;`,
		deviceID, desc.Name, Slug(deviceID, desc.Name))
	return err
}

func (db *Database) PublishValue(ctx context.Context, update model.ValueUpdate) error {
	_, err := db.conn.Exec(ctx, `
		INSERT INTO property_values (time_stamp, unit_of_measurement, value, identifier, slug)
		VALUES ($1, $2, $3, $4, $5)`,
		update.Timestamp, update.Unit, fmt.Sprint(update.Value), update.DeviceID, Slug(update.DeviceID, update.Property))
	return err
}

// Slug derives the storage identifier for a property of a device.
func Slug(deviceID, property string) string {
	return strings.Replace(slug.Make(deviceID+"-"+property), "-", "_", -1)
}

type Value struct {
	Id         int64     `json:"id"`
	TimeStamp  time.Time `json:"timestamp"`
	Unit       string    `json:"unit_of_measurement"`
	Value      string    `json:"value"`
	Identifier string    `json:"identifier"`
	Slug       string    `json:"slug"`
}
type Values []Value

// GetLatestValues returns the most recent stored value per property.
func (db *Database) GetLatestValues(ctx context.Context) (Values, error) {
	const query = `
	SELECT DISTINCT ON (slug) id, time_stamp, unit_of_measurement, value, identifier, slug
	FROM property_values
	ORDER BY slug, time_stamp DESC;
	`

	rows, err := db.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values Values
	for rows.Next() {
		var value Value
		if err := rows.Scan(&value.Id, &value.TimeStamp, &value.Unit, &value.Value, &value.Identifier, &value.Slug); err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		if err == pgx.ErrNoRows {
			return values, nil
		}
		return nil, err
	}

	return values, nil
}
