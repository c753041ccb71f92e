package utils_test

import (
	"bytes"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgerun/forgerun/internal/utils"
)

type recordingFlushDestination struct {
	buffer     bytes.Buffer
	flushCalls int
}

func (destination *recordingFlushDestination) Write(data []byte) (int, error) {
	return destination.buffer.Write(data)
}

func (destination *recordingFlushDestination) Flush() error {
	destination.flushCalls++
	return nil
}

type recordingSyncDestination struct {
	buffer    bytes.Buffer
	syncCalls int
	syncError error
}

func (destination *recordingSyncDestination) Write(data []byte) (int, error) {
	return destination.buffer.Write(data)
}

func (destination *recordingSyncDestination) Sync() error {
	destination.syncCalls++
	return destination.syncError
}

func TestFlushingWriterFlushesBufferedDestinations(testInstance *testing.T) {
	destination := &recordingFlushDestination{}
	writer := utils.NewFlushingWriter(destination)

	bytesWritten, writeError := writer.Write([]byte("Starting step init-repo"))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, len("Starting step init-repo"), bytesWritten)
	require.Equal(testInstance, 1, destination.flushCalls)
	require.Equal(testInstance, "Starting step init-repo", destination.buffer.String())
}

func TestFlushingWriterSyncsFileBackedDestinations(testInstance *testing.T) {
	destination := &recordingSyncDestination{}
	writer := utils.NewFlushingWriter(destination)

	_, writeError := writer.Write([]byte("Step commit-push completed"))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 1, destination.syncCalls)
}

func TestFlushingWriterToleratesTerminalSyncErrors(testInstance *testing.T) {
	destination := &recordingSyncDestination{syncError: syscall.ENOTSUP}
	writer := utils.NewFlushingWriter(destination)

	_, writeError := writer.Write([]byte("On branch main"))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "On branch main", destination.buffer.String())
}

func TestNewFlushingWriterReturnsExistingWrapper(testInstance *testing.T) {
	wrapped := utils.NewFlushingWriter(&bytes.Buffer{})
	require.Same(testInstance, wrapped, utils.NewFlushingWriter(wrapped))
	require.Nil(testInstance, utils.NewFlushingWriter(nil))
}
