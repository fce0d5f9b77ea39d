package repository

import (
	"context"

	"github.com/creostudios/backend/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetVerified(ctx context.Context, email string) error
	SetAdmin(ctx context.Context, email string, admin bool) error
}

type OTPRepo interface {
	// Supersede deletes any prior challenge for the email and stores the
	// new one in its place.
	Supersede(ctx context.Context, o *models.OTP) (int64, error)
	GetOTPByEmail(ctx context.Context, email string) (*models.OTP, error)
	DeleteOTPByEmail(ctx context.Context, email string) error
}

type ApplicationRepo interface {
	CreateApplication(ctx context.Context, a *models.Application) (int64, error)
	GetApplicationByID(ctx context.Context, id int64) (*models.Application, error)
	ListByOwner(ctx context.Context, email string) ([]models.Application, error)
	ListAll(ctx context.Context) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
	SetDelivery(ctx context.Context, id int64, d *models.Delivery, deliveredAt int64) error
}

type FileRepo interface {
	CreateFile(ctx context.Context, f *models.UploadedFile) (int64, error)
	GetFileByID(ctx context.Context, id int64) (*models.UploadedFile, error)
	ListFiles(ctx context.Context) ([]models.UploadedFile, error)
}
