package postgres

import (
	"github.com/medbridge/portal-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

type notificationRepository struct {
	BaseRepository
}

type aiSummaryRepository struct {
	BaseRepository
}

type clinicalRepository struct {
	BaseRepository
}

type userRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func NewAISummaryRepository(base BaseRepository) repository.AISummaryRepository {
	return &aiSummaryRepository{base}
}

func NewClinicalRepository(base BaseRepository) repository.ClinicalRepository {
	return &clinicalRepository{base}
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}
