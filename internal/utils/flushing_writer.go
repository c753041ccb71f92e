package utils

import (
	"errors"
	"io"
	"sync"
	"syscall"
)

type flushableDestination interface{ Flush() error }

type syncableDestination interface{ Sync() error }

// FlushingWriter pushes run log writes through to their destination as soon
// as they happen, keeping both run log streams readable while a sequence is
// still executing. Buffered destinations are flushed and file-backed
// destinations are synced after every write.
type FlushingWriter struct {
	destination io.Writer
	writeMutex  sync.Mutex
}

// NewFlushingWriter wraps the destination in a FlushingWriter. Nil and
// already wrapped destinations are returned unchanged.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if _, alreadyWrapped := destination.(*FlushingWriter); alreadyWrapped {
		return destination
	}
	return &FlushingWriter{destination: destination}
}

// Write forwards data to the destination and then flushes or syncs it when
// the destination supports either. Sync errors from terminal devices are
// ignored, character devices commonly reject fsync.
func (writer *FlushingWriter) Write(data []byte) (int, error) {
	if writer == nil || writer.destination == nil {
		return 0, nil
	}

	writer.writeMutex.Lock()
	defer writer.writeMutex.Unlock()

	bytesWritten, writeError := writer.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	switch typedDestination := writer.destination.(type) {
	case flushableDestination:
		if flushError := typedDestination.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	case syncableDestination:
		syncError := typedDestination.Sync()
		if syncError != nil && !errors.Is(syncError, syscall.ENOTSUP) && !errors.Is(syncError, syscall.EINVAL) {
			return bytesWritten, syncError
		}
	}

	return bytesWritten, nil
}
