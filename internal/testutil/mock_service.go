//go:build !production

package testutil

import (
	"github.com/stretchr/testify/mock"

	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/types"
)

// MockGameService 实现 handler.GameService 的 mock
type MockGameService struct {
	mock.Mock
}

func (m *MockGameService) Join(client types.ClientInterface, req protocol.JoinPayload) error {
	args := m.Called(client, req)
	return args.Error(0)
}

func (m *MockGameService) Leave(client types.ClientInterface) error {
	args := m.Called(client)
	return args.Error(0)
}

func (m *MockGameService) Disconnect(client types.ClientInterface) {
	m.Called(client)
}

func (m *MockGameService) StartGame(client types.ClientInterface, req protocol.StartGamePayload) error {
	args := m.Called(client, req)
	return args.Error(0)
}

func (m *MockGameService) SubmitAnswer(client types.ClientInterface, req protocol.SubmitAnswerPayload) error {
	args := m.Called(client, req)
	return args.Error(0)
}

func (m *MockGameService) SubmitVote(client types.ClientInterface, req protocol.SubmitVotePayload) error {
	args := m.Called(client, req)
	return args.Error(0)
}

func (m *MockGameService) NextPhase(client types.ClientInterface) error {
	args := m.Called(client)
	return args.Error(0)
}

func (m *MockGameService) Restart(client types.ClientInterface) error {
	args := m.Called(client)
	return args.Error(0)
}
