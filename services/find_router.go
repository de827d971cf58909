package services

import (
	"context"

	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/caio-sobreiro/pacs/interfaces"
	"github.com/caio-sobreiro/pacs/types"
)

// CFindRouter dispatches an incoming C-FIND by its Affected SOP Class
// UID, since services.Registry itself routes only by DIMSE command
// field and the patient-root and modality-worklist information models
// both arrive as CFindRQ. WorklistHandler is consulted for
// types.ModalityWorklistInformationModelFind; everything else goes to
// PatientRoot.
type CFindRouter struct {
	PatientRoot     interfaces.StreamingServiceHandler
	WorklistHandler interfaces.StreamingServiceHandler
}

// NewCFindRouter creates a router dispatching between the patient-root
// and modality-worklist C-FIND handlers by Affected SOP Class UID.
func NewCFindRouter(patientRoot, worklistHandler interfaces.StreamingServiceHandler) *CFindRouter {
	return &CFindRouter{PatientRoot: patientRoot, WorklistHandler: worklistHandler}
}

var _ interfaces.StreamingServiceHandler = (*CFindRouter)(nil)
var _ interfaces.ServiceHandler = (*CFindRouter)(nil)

func (r *CFindRouter) route(sopClassUID string) interfaces.StreamingServiceHandler {
	if sopClassUID == types.ModalityWorklistInformationModelFind && r.WorklistHandler != nil {
		return r.WorklistHandler
	}
	return r.PatientRoot
}

// HandleDIMSEStreaming implements interfaces.StreamingServiceHandler.
func (r *CFindRouter) HandleDIMSEStreaming(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext, responder interfaces.ResponseSender) error {
	return r.route(msg.AffectedSOPClassUID).HandleDIMSEStreaming(ctx, msg, data, meta, responder)
}

// HandleDIMSE implements interfaces.ServiceHandler, falling back to the
// routed handler's own HandleDIMSE for registries that bypass streaming.
func (r *CFindRouter) HandleDIMSE(ctx context.Context, msg *types.Message, data []byte, meta interfaces.MessageContext) (*types.Message, *dicom.DataSet, error) {
	handler, ok := r.route(msg.AffectedSOPClassUID).(interfaces.ServiceHandler)
	if !ok {
		return CreateErrorResponse(msg, dimseStatusUnableToProcess), nil, nil
	}
	return handler.HandleDIMSE(ctx, msg, data, meta)
}
