package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/caio-sobreiro/pacs/interfaces"
	"github.com/caio-sobreiro/pacs/querydispatch"
	"github.com/caio-sobreiro/pacs/types"
)

// CFindService answers C-FIND queries against a DataStore, streaming one
// pending response per match followed by a final success response.
//
// Each query is submitted as a single-request batch to a
// querydispatch.Executor so concurrent C-FIND associations are bounded
// by maxConcurrent and individually time-boxed by queryTimeout, rather
// than each running the catalog search unbounded on its own connection
// goroutine. The executor is also a prometheus.Collector; callers
// register it on their own registry.
type CFindService struct {
	Store        interfaces.DataStore
	Dispatcher   *querydispatch.Executor
	QueryTimeout time.Duration
}

// NewCFindService creates a C-FIND service backed by store. maxConcurrent
// bounds how many C-FIND searches run at once across every association
// using this service (<=0 defaults to 4); queryTimeout bounds each one
// (<=0 means no per-query timeout).
func NewCFindService(store interfaces.DataStore, maxConcurrent int, queryTimeout time.Duration) *CFindService {
	s := &CFindService{Store: store, QueryTimeout: queryTimeout}
	s.Dispatcher = querydispatch.New(maxConcurrent, func(ctx context.Context, req querydispatch.Request) ([]*dicom.DataSet, error) {
		return s.search(req.Keys)
	})
	return s
}

// HandleDIMSEStreaming implements interfaces.StreamingServiceHandler.
func (s *CFindService) HandleDIMSEStreaming(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext, responder interfaces.ResponseSender) error {
	identifier, err := s.identifier(data, meta)
	if err != nil {
		slog.WarnContext(ctx, "C-FIND identifier could not be parsed", "error", err)
		return responder.SendResponse(NewCFindErrorResponse(msg, dimseStatusUnableToProcess), nil, meta.TransferSyntaxUID)
	}

	query := queryFromDataset(identifier)
	results, err := s.dispatchSearch(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "C-FIND search failed", "error", err, "level", query.Level)
		return responder.SendResponse(NewCFindErrorResponse(msg, dimseStatusUnableToProcess), nil, meta.TransferSyntaxUID)
	}

	for _, result := range results {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "C-FIND cancelled mid-stream", "message_id", msg.MessageID)
			return responder.SendResponse(NewCFindCancelResponse(msg), nil, meta.TransferSyntaxUID)
		default:
		}

		pending := NewCFindPendingResponse(msg)
		if err := responder.SendResponse(pending, result, meta.TransferSyntaxUID); err != nil {
			return err
		}
	}

	return responder.SendResponse(NewCFindSuccessResponse(msg), nil, meta.TransferSyntaxUID)
}

// HandleDIMSE implements interfaces.ServiceHandler by returning the first
// match only; registries should prefer HandleDIMSEStreaming for C-FIND.
func (s *CFindService) HandleDIMSE(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext) (*types.Message, *dicom.DataSet, error) {
	identifier, err := s.identifier(data, meta)
	if err != nil {
		return NewCFindErrorResponse(msg, dimseStatusUnableToProcess), nil, err
	}

	query := queryFromDataset(identifier)
	results, err := s.search(query)
	if err != nil {
		return NewCFindErrorResponse(msg, dimseStatusUnableToProcess), nil, err
	}
	if len(results) == 0 {
		return NewCFindSuccessResponse(msg), nil, nil
	}
	return NewCFindPendingResponse(msg), results[0], nil
}

func (s *CFindService) identifier(data []byte, meta interfaces.MessageContext) (*dicom.DataSet, error) {
	if meta.Dataset != nil {
		return meta.Dataset, nil
	}
	return dicom.Decode(data, dicom.TransferSyntaxFor(meta.TransferSyntaxUID))
}

func (s *CFindService) search(query *types.QueryRequest) ([]*dicom.DataSet, error) {
	switch query.Level {
	case types.QueryLevelPatient:
		patients, err := s.Store.FindPatients(query)
		if err != nil {
			return nil, err
		}
		out := make([]*dicom.DataSet, len(patients))
		for i, p := range patients {
			out[i] = patientToDataSet(p)
		}
		return out, nil
	case types.QueryLevelStudy:
		studies, err := s.Store.FindStudies(query)
		if err != nil {
			return nil, err
		}
		out := make([]*dicom.DataSet, len(studies))
		for i, st := range studies {
			out[i] = studyToDataSet(st)
		}
		return out, nil
	case types.QueryLevelSeries:
		series, err := s.Store.FindSeries(query)
		if err != nil {
			return nil, err
		}
		out := make([]*dicom.DataSet, len(series))
		for i, sr := range series {
			out[i] = seriesToDataSet(sr)
		}
		return out, nil
	case types.QueryLevelImage:
		images, err := s.Store.FindImages(query)
		if err != nil {
			return nil, err
		}
		out := make([]*dicom.DataSet, len(images))
		for i, img := range images {
			out[i] = imageToDataSet(img)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported query/retrieve level: %q", query.Level)
	}
}

// dispatchSearch submits query as a single-request batch to the
// executor, giving it the calling AE, a fresh query ID, and s's
// configured QueryTimeout per spec.md's query_request contract.
func (s *CFindService) dispatchSearch(ctx context.Context, query *types.QueryRequest) ([]*dicom.DataSet, error) {
	query.QueryID = uuid.NewString()
	results := s.Dispatcher.Dispatch(ctx, []querydispatch.Request{{
		Level:     query.Level,
		Keys:      query,
		CallingAE: query.CallingAE,
		QueryID:   query.QueryID,
		Priority:  query.Priority,
		Timeout:   s.QueryTimeout,
	}})
	result := results[0]
	switch {
	case result.Cancelled:
		return nil, context.Canceled
	case result.TimedOut:
		return nil, fmt.Errorf("query %s timed out after %s", result.QueryID, s.QueryTimeout)
	case result.Err != nil:
		return nil, result.Err
	default:
		return result.Matches, nil
	}
}

// dimseStatusUnableToProcess is PS3.7's C-FIND/C-MOVE/C-GET failure status
// for a query the SCP cannot process (malformed identifier, backend error).
const dimseStatusUnableToProcess = 0xC001
