package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caio-sobreiro/pacs/catalog"
	"github.com/caio-sobreiro/pacs/client"
	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/caio-sobreiro/pacs/dimse"
	"github.com/caio-sobreiro/pacs/hsm"
	"github.com/caio-sobreiro/pacs/interfaces"
	"github.com/caio-sobreiro/pacs/types"
)

// RetrieveService answers C-MOVE and C-GET by resolving the identifier
// against the catalog and reading matched instances from the HSM.
// C-MOVE forwards each instance as a C-STORE sub-association to the
// named destination; C-GET streams C-STORE sub-operations on the
// existing association via the responder's CGetResponder extension.
type RetrieveService struct {
	Catalog        catalog.Store
	HSM            *hsm.HSM
	CallingAETitle string
	// Destinations maps a C-MOVE-RQ's Move Destination AE title to the
	// host:port a C-STORE sub-association should connect to.
	Destinations map[string]string
}

// NewRetrieveService creates a C-MOVE/C-GET service backed by store and
// h. destinations maps move destination AE titles to dial addresses.
func NewRetrieveService(store catalog.Store, h *hsm.HSM, callingAETitle string, destinations map[string]string) *RetrieveService {
	return &RetrieveService{Catalog: store, HSM: h, CallingAETitle: callingAETitle, Destinations: destinations}
}

// HandleDIMSEStreaming implements interfaces.StreamingServiceHandler,
// dispatching to the C-MOVE or C-GET sub-operation loop.
func (s *RetrieveService) HandleDIMSEStreaming(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext, responder interfaces.ResponseSender) error {
	switch msg.CommandField {
	case dimse.CMoveRQ:
		return s.handleMove(ctx, msg, data, meta, responder)
	case dimse.CGetRQ:
		return s.handleGet(ctx, msg, data, meta, responder)
	default:
		return fmt.Errorf("retrieve service: unsupported command 0x%04x", msg.CommandField)
	}
}

// HandleDIMSE implements interfaces.ServiceHandler for registries that
// only know the single-response contract. C-MOVE and C-GET are
// inherently multi-response, so this always fails; servers must
// dispatch through HandleDIMSEStreaming instead.
func (s *RetrieveService) HandleDIMSE(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext) (*types.Message, *dicom.DataSet, error) {
	return CreateErrorResponse(msg, dimse.StatusFailure), nil, fmt.Errorf("retrieve service requires a streaming responder")
}

func (s *RetrieveService) identifier(data []byte, meta interfaces.MessageContext) (*dicom.DataSet, error) {
	if meta.Dataset != nil {
		return meta.Dataset, nil
	}
	return dicom.Decode(data, dicom.TransferSyntaxFor(meta.TransferSyntaxUID))
}

// matchingInstances resolves an identifier to the catalog instances it
// names, walking down from whichever level (instance, series, or
// study) the identifier specifies most precisely.
func (s *RetrieveService) matchingInstances(ctx context.Context, identifier *dicom.DataSet) ([]catalog.Instance, error) {
	if sopUID := identifier.GetString(tagSOPInstanceUID); sopUID != "" {
		inst, err := s.Catalog.FindInstance(ctx, sopUID)
		if err != nil {
			return nil, nil
		}
		return []catalog.Instance{inst}, nil
	}

	if seriesUID := identifier.GetString(tagSeriesInstanceUID); seriesUID != "" {
		series, err := s.Catalog.FindSeries(ctx, seriesUID)
		if err != nil {
			return nil, nil
		}
		return s.Catalog.ListInstancesBySeries(ctx, series.PK)
	}

	studyUID := identifier.GetString(tagStudyInstanceUID)
	if studyUID == "" {
		return nil, fmt.Errorf("retrieve identifier names no study, series, or instance")
	}

	study, err := s.Catalog.FindStudy(ctx, studyUID)
	if err != nil {
		return nil, nil
	}
	seriesList, err := s.Catalog.ListSeriesByStudy(ctx, study.PK)
	if err != nil {
		return nil, err
	}
	var out []catalog.Instance
	for _, sr := range seriesList {
		instances, err := s.Catalog.ListInstancesBySeries(ctx, sr.PK)
		if err != nil {
			return nil, err
		}
		out = append(out, instances...)
	}
	return out, nil
}

func (s *RetrieveService) handleMove(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext, responder interfaces.ResponseSender) error {
	identifier, err := s.identifier(data, meta)
	if err != nil {
		slog.WarnContext(ctx, "C-MOVE identifier could not be parsed", "error", err)
		return responder.SendResponse(NewCMoveErrorResponse(msg, dimseStatusUnableToProcess), nil, meta.TransferSyntaxUID)
	}

	instances, err := s.matchingInstances(ctx, identifier)
	if err != nil {
		slog.ErrorContext(ctx, "C-MOVE lookup failed", "error", err)
		return responder.SendResponse(NewCMoveErrorResponse(msg, dimseStatusUnableToProcess), nil, meta.TransferSyntaxUID)
	}
	if len(instances) == 0 {
		return responder.SendResponse(NewCMoveSuccessResponse(msg, 0, 0, 0), nil, meta.TransferSyntaxUID)
	}

	destination, ok := s.Destinations[msg.MoveDestination]
	if !ok {
		slog.ErrorContext(ctx, "C-MOVE destination unknown", "ae_title", msg.MoveDestination)
		return responder.SendResponse(NewCMoveErrorResponse(msg, dimseStatusMoveDestinationUnknown), nil, meta.TransferSyntaxUID)
	}

	var completed, failed, warning uint16
	total := len(instances)
	for i, inst := range instances {
		remaining := uint16(total - i)

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "C-MOVE cancelled mid-stream", "message_id", msg.MessageID)
			return responder.SendResponse(NewCMoveCancelResponse(msg, completed, failed, warning, remaining), nil, meta.TransferSyntaxUID)
		default:
		}

		pending := NewCMovePendingResponse(msg, completed, failed, warning, remaining)
		if err := responder.SendResponse(pending, nil, meta.TransferSyntaxUID); err != nil {
			return err
		}

		if err := s.sendCStore(ctx, destination, msg.MoveDestination, inst); err != nil {
			slog.ErrorContext(ctx, "C-MOVE sub-operation failed", "error", err, "sop_instance", inst.SOPInstanceUID)
			failed++
		} else {
			completed++
		}
	}

	return responder.SendResponse(NewCMoveSuccessResponse(msg, completed, failed, warning), nil, meta.TransferSyntaxUID)
}

func (s *RetrieveService) handleGet(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext, responder interfaces.ResponseSender) error {
	identifier, err := s.identifier(data, meta)
	if err != nil {
		slog.WarnContext(ctx, "C-GET identifier could not be parsed", "error", err)
		return responder.SendResponse(NewCGetErrorResponse(msg, dimseStatusUnableToProcess), nil, meta.TransferSyntaxUID)
	}

	instances, err := s.matchingInstances(ctx, identifier)
	if err != nil {
		slog.ErrorContext(ctx, "C-GET lookup failed", "error", err)
		return responder.SendResponse(NewCGetErrorResponse(msg, dimseStatusUnableToProcess), nil, meta.TransferSyntaxUID)
	}
	if len(instances) == 0 {
		return responder.SendResponse(NewCGetSuccessResponse(msg, 0, 0, 0), nil, meta.TransferSyntaxUID)
	}

	cGetResponder, ok := responder.(interfaces.CGetResponder)
	if !ok {
		return responder.SendResponse(NewCGetErrorResponse(msg, dimseStatusUnableToProcess), nil, meta.TransferSyntaxUID)
	}

	var completed, failed, warning uint16
	total := len(instances)
	for i, inst := range instances {
		remaining := uint16(total - i)

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "C-GET cancelled mid-stream", "message_id", msg.MessageID)
			return responder.SendResponse(NewCGetCancelResponse(msg, completed, failed, warning, remaining), nil, meta.TransferSyntaxUID)
		default:
		}

		pending := NewCGetPendingResponse(msg, completed, failed, warning, remaining)
		if err := responder.SendResponse(pending, nil, meta.TransferSyntaxUID); err != nil {
			return err
		}

		payload, err := s.HSM.Retrieve(ctx, inst.SOPInstanceUID)
		if err != nil {
			slog.ErrorContext(ctx, "C-GET retrieve from HSM failed", "error", err, "sop_instance", inst.SOPInstanceUID)
			failed++
			continue
		}
		if err := cGetResponder.SendCStore(inst.SOPClassUID, inst.SOPInstanceUID, payload); err != nil {
			slog.ErrorContext(ctx, "C-GET sub-operation failed", "error", err, "sop_instance", inst.SOPInstanceUID)
			failed++
			continue
		}
		completed++
	}

	return responder.SendResponse(NewCGetSuccessResponse(msg, completed, failed, warning), nil, meta.TransferSyntaxUID)
}

// sendCStore retrieves an instance's bytes from the HSM and forwards
// them as a C-STORE sub-operation over a fresh association to address.
func (s *RetrieveService) sendCStore(ctx context.Context, address, destinationAE string, inst catalog.Instance) error {
	payload, err := s.HSM.Retrieve(ctx, inst.SOPInstanceUID)
	if err != nil {
		return fmt.Errorf("retrieve instance from HSM: %w", err)
	}

	assoc, err := client.Connect(address, client.Config{
		CallingAETitle: s.CallingAETitle,
		CalledAETitle:  destinationAE,
	})
	if err != nil {
		return fmt.Errorf("connect to move destination: %w", err)
	}
	defer assoc.Close()

	resp, err := assoc.SendCStore(&client.CStoreRequest{
		SOPClassUID:    inst.SOPClassUID,
		SOPInstanceUID: inst.SOPInstanceUID,
		Data:           payload,
		MessageID:      1,
	})
	if err != nil {
		return fmt.Errorf("C-STORE sub-operation: %w", err)
	}
	if resp.Status != dimse.StatusSuccess {
		return fmt.Errorf("C-STORE sub-operation returned status 0x%04X", resp.Status)
	}
	return nil
}

// DIMSE failure statuses used when an identifier or destination cannot
// be resolved, per PS3.7 Annex C status code tables for C-MOVE/C-GET.
const (
	dimseStatusMoveDestinationUnknown = 0xA801
)
