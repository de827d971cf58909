package worklist

import (
	"context"
	"log/slog"

	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/caio-sobreiro/pacs/dimse"
	"github.com/caio-sobreiro/pacs/interfaces"
	"github.com/caio-sobreiro/pacs/types"
)

// Handler answers Modality Worklist C-FIND queries (SOP Class
// "1.2.840.10008.5.1.4.31") against a Store, mirroring
// services.CFindService's streaming shape: one pending response per
// matched item, then a final success response, with the same C-CANCEL
// handling via ctx.
type Handler struct {
	Store *Store
}

// NewHandler creates a Modality Worklist SCP handler backed by store.
func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

var _ interfaces.StreamingServiceHandler = (*Handler)(nil)

// HandleDIMSEStreaming implements interfaces.StreamingServiceHandler.
func (h *Handler) HandleDIMSEStreaming(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext, responder interfaces.ResponseSender) error {
	identifier, err := h.identifier(data, meta)
	if err != nil {
		slog.WarnContext(ctx, "worklist C-FIND identifier could not be parsed", "error", err)
		return responder.SendResponse(errorResponse(msg), nil, meta.TransferSyntaxUID)
	}

	query := queryFromIdentifier(identifier)
	matches := h.Store.Search(query)

	for _, item := range matches {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "worklist C-FIND cancelled mid-stream", "message_id", msg.MessageID)
			return responder.SendResponse(cancelResponse(msg), nil, meta.TransferSyntaxUID)
		default:
		}

		pending := pendingResponse(msg)
		if err := responder.SendResponse(pending, itemToDataSet(item), meta.TransferSyntaxUID); err != nil {
			return err
		}
	}

	return responder.SendResponse(successResponse(msg), nil, meta.TransferSyntaxUID)
}

// HandleDIMSE implements interfaces.ServiceHandler for registries that
// only know the single-response contract, returning the first match.
func (h *Handler) HandleDIMSE(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext) (*types.Message, *dicom.DataSet, error) {
	identifier, err := h.identifier(data, meta)
	if err != nil {
		return errorResponse(msg), nil, err
	}
	matches := h.Store.Search(queryFromIdentifier(identifier))
	if len(matches) == 0 {
		return successResponse(msg), nil, nil
	}
	return pendingResponse(msg), itemToDataSet(matches[0]), nil
}

func (h *Handler) identifier(data []byte, meta interfaces.MessageContext) (*dicom.DataSet, error) {
	if meta.Dataset != nil {
		return meta.Dataset, nil
	}
	return dicom.Decode(data, dicom.TransferSyntaxFor(meta.TransferSyntaxUID))
}

var (
	tagAccessionNumber  = dicom.Tag{Group: 0x0008, Element: 0x0050}
	tagPatientID        = dicom.Tag{Group: 0x0010, Element: 0x0020}
	tagPatientName      = dicom.Tag{Group: 0x0010, Element: 0x0010}
	tagPatientBirthDate = dicom.Tag{Group: 0x0010, Element: 0x0030}
	tagPatientSex       = dicom.Tag{Group: 0x0010, Element: 0x0040}
	tagStudyInstanceUID = dicom.Tag{Group: 0x0020, Element: 0x000D}
	tagModality         = dicom.Tag{Group: 0x0008, Element: 0x0060}
	// Scheduled Procedure Step Sequence and its children (0040,0100 item
	// attributes) are flattened onto the top-level item here rather than
	// modeled as a nested sequence, since Item already stores them flat.
	tagScheduledStationAET    = dicom.Tag{Group: 0x0040, Element: 0x0001}
	tagScheduledProcedureDate = dicom.Tag{Group: 0x0040, Element: 0x0002}
	tagScheduledProcedureTime = dicom.Tag{Group: 0x0040, Element: 0x0003}
	tagRequestedProcedureID   = dicom.Tag{Group: 0x0040, Element: 0x1001}
	tagRequestingPhysician    = dicom.Tag{Group: 0x0032, Element: 0x1032}
)

func queryFromIdentifier(identifier *dicom.DataSet) Query {
	return Query{
		PatientID:              identifier.GetString(tagPatientID),
		PatientName:            identifier.GetString(tagPatientName),
		ScheduledStationAET:    identifier.GetString(tagScheduledStationAET),
		ScheduledProcedureDate: identifier.GetString(tagScheduledProcedureDate),
		Modality:               identifier.GetString(tagModality),
		AccessionNumber:        identifier.GetString(tagAccessionNumber),
	}
}

func itemToDataSet(item Item) *dicom.DataSet {
	ds := dicom.NewDataSet()
	ds.AddString(tagAccessionNumber, dicom.VR_SH, item.AccessionNumber)
	ds.AddString(tagPatientID, dicom.VR_LO, item.PatientID)
	ds.AddString(tagPatientName, dicom.VR_PN, item.PatientName)
	ds.AddString(tagPatientBirthDate, dicom.VR_DA, item.PatientBirthDate)
	ds.AddString(tagPatientSex, dicom.VR_CS, item.PatientSex)
	ds.AddString(tagStudyInstanceUID, dicom.VR_UI, item.StudyInstanceUID)
	ds.AddString(tagModality, dicom.VR_CS, item.Modality)
	ds.AddString(tagScheduledStationAET, dicom.VR_AE, item.ScheduledStationAET)
	ds.AddString(tagScheduledProcedureDate, dicom.VR_DA, item.ScheduledProcedureDate)
	ds.AddString(tagScheduledProcedureTime, dicom.VR_TM, item.ScheduledProcedureTime)
	ds.AddString(tagRequestedProcedureID, dicom.VR_SH, item.RequestedProcedureID)
	ds.AddString(tagRequestingPhysician, dicom.VR_PN, item.RequestingPhysician)
	return ds
}

func pendingResponse(request *types.Message) *types.Message {
	return &types.Message{
		CommandField:              dimse.CFindRSP,
		MessageIDBeingRespondedTo: request.MessageID,
		AffectedSOPClassUID:       request.AffectedSOPClassUID,
		CommandDataSetType:        0x0000,
		Status:                    dimse.StatusPending,
	}
}

func successResponse(request *types.Message) *types.Message {
	return &types.Message{
		CommandField:              dimse.CFindRSP,
		MessageIDBeingRespondedTo: request.MessageID,
		AffectedSOPClassUID:       request.AffectedSOPClassUID,
		CommandDataSetType:        0x0101,
		Status:                    dimse.StatusSuccess,
	}
}

func cancelResponse(request *types.Message) *types.Message {
	return &types.Message{
		CommandField:              dimse.CFindRSP,
		MessageIDBeingRespondedTo: request.MessageID,
		AffectedSOPClassUID:       request.AffectedSOPClassUID,
		CommandDataSetType:        0x0101,
		Status:                    dimse.StatusCancel,
	}
}

func errorResponse(request *types.Message) *types.Message {
	return &types.Message{
		CommandField:              dimse.CFindRSP,
		MessageIDBeingRespondedTo: request.MessageID,
		AffectedSOPClassUID:       request.AffectedSOPClassUID,
		CommandDataSetType:        0x0101,
		Status:                    0xC001,
	}
}
