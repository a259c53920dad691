package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient(t *testing.T) (*Client, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return &Client{Client: db}, mock
}

func TestGetString(t *testing.T) {
	client, mock := newMockedClient(t)

	mock.ExpectGet("maps:geocode:abc").SetVal(`{"status":"OK"}`)

	value, err := client.GetString(context.Background(), "maps:geocode:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"OK"}`, value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStringMiss(t *testing.T) {
	client, mock := newMockedClient(t)

	mock.ExpectGet("missing").RedisNil()

	_, err := client.GetString(context.Background(), "missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetWithExpiration(t *testing.T) {
	client, mock := newMockedClient(t)

	mock.ExpectSet("maps:directions:xyz", "payload", 5*time.Minute).SetVal("OK")

	err := client.SetWithExpiration(context.Background(), "maps:directions:xyz", "payload", 5*time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	client, mock := newMockedClient(t)

	mock.ExpectExists("present").SetVal(1)

	ok, err := client.Exists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	client, mock := newMockedClient(t)

	mock.ExpectDel("a", "b").SetVal(2)

	err := client.Delete(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
