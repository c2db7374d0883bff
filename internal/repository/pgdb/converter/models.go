package converter

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// PersonModel представляет запись таблицы persons в PostgreSQL.
type PersonModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// PersonImageModel представляет запись таблицы person_images в PostgreSQL.
type PersonImageModel struct {
	ID        int64     `db:"id"`
	PersonID  int64     `db:"person_id"`
	ImageKey  string    `db:"image_key"`
	CreatedAt time.Time `db:"created_at"`
}

// PhotoModel представляет запись таблицы photos в PostgreSQL.
type PhotoModel struct {
	ID        int64     `db:"id"`
	EventID   int64     `db:"event_id"`
	ImageKey  string    `db:"image_key"`
	CreatedAt time.Time `db:"created_at"`
}

// PersonDescriptorModel представляет запись таблицы person_descriptors в PostgreSQL.
type PersonDescriptorModel struct {
	ID            int64           `db:"id"`
	PersonID      int64           `db:"person_id"`
	PersonImageID int64           `db:"person_image_id"`
	Descriptor    pgvector.Vector `db:"descriptor"`
}

// PhotoFaceDescriptorModel представляет запись таблицы photo_face_descriptors в PostgreSQL.
type PhotoFaceDescriptorModel struct {
	ID         int64           `db:"id"`
	PhotoID    int64           `db:"photo_id"`
	FaceIndex  int             `db:"face_index"`
	Descriptor pgvector.Vector `db:"descriptor"`
	BoxX       float64         `db:"box_x"`
	BoxY       float64         `db:"box_y"`
	BoxWidth   float64         `db:"box_width"`
	BoxHeight  float64         `db:"box_height"`
}
