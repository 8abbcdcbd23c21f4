package database

import (
	"github.com/stretchr/testify/mock"
)

type MockMessageArchive struct {
	mock.Mock
}

func (m *MockMessageArchive) SaveMessage(msg Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockMessageArchive) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMessageArchive) Close() error {
	args := m.Called()
	return args.Error(0)
}
