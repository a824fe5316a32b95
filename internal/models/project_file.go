package models

import "time"

type ProjectFileRecord struct {
	ID         string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"column:user_id;index" json:"user_id"`
	FileName   string    `gorm:"column:file_name;type:text" json:"file_name"`
	ObjectPath string    `gorm:"column:object_path;type:text" json:"object_path"`
	URL        string    `gorm:"column:url;type:text" json:"url"`
	MimeType   string    `gorm:"column:mime_type;type:text" json:"mime_type"`
	FileSize   int64     `gorm:"column:file_size" json:"file_size"`
	UploadedAt time.Time `gorm:"column:uploaded_at;index" json:"uploaded_at"`
}

func (ProjectFileRecord) TableName() string { return "project_files" }

// Descriptor is what the generate endpoint accepts as projectFile.
func (r *ProjectFileRecord) Descriptor() *ProjectFile {
	return &ProjectFile{Name: r.FileName, Type: r.MimeType, URL: r.URL, Path: r.ObjectPath}
}
