// Command pacsctl is a control CLI for exercising a PACS SCP from the
// command line: C-ECHO, C-FIND, C-STORE, and C-CANCEL against a
// running pacsd (or any conformant SCP).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/caio-sobreiro/pacs/client"
	"github.com/caio-sobreiro/pacs/dicom"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		callingAE string
		calledAE  string
		address   string
	)

	root := &cobra.Command{
		Use:   "pacsctl",
		Short: "Exercise a DICOM PACS SCP from the command line",
	}
	root.PersistentFlags().StringVar(&callingAE, "calling-ae", "PACSCTL", "Calling AE title")
	root.PersistentFlags().StringVar(&calledAE, "called-ae", "PACSD", "Called AE title")
	root.PersistentFlags().StringVar(&address, "address", "localhost:11112", "host:port of the SCP")

	root.AddCommand(
		newEchoCmd(&callingAE, &calledAE, &address),
		newFindCmd(&callingAE, &calledAE, &address),
		newStoreCmd(&callingAE, &calledAE, &address),
		newCancelCmd(&callingAE, &calledAE, &address),
	)
	return root
}

func connect(callingAE, calledAE, address string) (*client.Association, error) {
	return client.Connect(address, client.Config{
		CallingAETitle: callingAE,
		CalledAETitle:  calledAE,
		ConnectTimeout: 10 * time.Second,
	})
}

func newEchoCmd(callingAE, calledAE, address *string) *cobra.Command {
	return &cobra.Command{
		Use:   "echo",
		Short: "Send a C-ECHO and print the response status",
		RunE: func(cmd *cobra.Command, args []string) error {
			assoc, err := connect(*callingAE, *calledAE, *address)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer assoc.Close()

			resp, err := assoc.SendCEcho(1)
			if err != nil {
				return fmt.Errorf("C-ECHO: %w", err)
			}
			fmt.Printf("C-ECHO status: 0x%04X\n", resp.Status)
			return nil
		},
	}
}

func newFindCmd(callingAE, calledAE, address *string) *cobra.Command {
	var (
		patientID   string
		patientName string
		sopClassUID string
	)
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Send a C-FIND query and print the status and element count of each match",
		RunE: func(cmd *cobra.Command, args []string) error {
			assoc, err := connect(*callingAE, *calledAE, *address)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer assoc.Close()

			identifier := dicom.NewDataSet()
			identifier.AddString(dicom.Tag{Group: 0x0008, Element: 0x0052}, dicom.VR_CS, "STUDY")
			if patientID != "" {
				identifier.AddString(dicom.Tag{Group: 0x0010, Element: 0x0020}, dicom.VR_LO, patientID)
			}
			if patientName != "" {
				identifier.AddString(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.VR_PN, patientName)
			}

			responses, err := assoc.SendCFind(&client.CFindRequest{
				SOPClassUID: sopClassUID,
				MessageID:   1,
				Dataset:     identifier,
			})
			if err != nil {
				return fmt.Errorf("C-FIND: %w", err)
			}

			for _, resp := range responses {
				if resp.Dataset == nil {
					continue
				}
				fmt.Printf("match: status=0x%04X elements=%d\n", resp.Status, resp.Dataset.Len())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&patientID, "patient-id", "", "Patient ID to match (wildcards allowed)")
	cmd.Flags().StringVar(&patientName, "patient-name", "", "Patient name to match (wildcards allowed)")
	cmd.Flags().StringVar(&sopClassUID, "sop-class", "", "Information model SOP Class UID (default: study-root find)")
	return cmd
}

func newStoreCmd(callingAE, calledAE, address *string) *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Send a Part 10 DICOM file via C-STORE",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("read %s: %w", filePath, err)
			}
			file, err := dicom.DecodeFile(raw, nil)
			if err != nil {
				return fmt.Errorf("decode %s: %w", filePath, err)
			}

			sopClassUID := file.Meta.MediaStorageSOPClassUID
			sopInstanceUID := file.Meta.MediaStorageSOPInstanceUID
			if sopClassUID == "" || sopInstanceUID == "" {
				return fmt.Errorf("%s has no SOP Class/Instance UID", filePath)
			}

			assoc, err := connect(*callingAE, *calledAE, *address)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer assoc.Close()

			data, err := dicom.Encode(file.Dataset, dicom.TransferSyntaxFor(file.Meta.TransferSyntaxUID))
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			resp, err := assoc.SendCStore(&client.CStoreRequest{
				SOPClassUID:    sopClassUID,
				SOPInstanceUID: sopInstanceUID,
				Data:           data,
				MessageID:      1,
			})
			if err != nil {
				return fmt.Errorf("C-STORE: %w", err)
			}
			fmt.Printf("C-STORE status: 0x%04X\n", resp.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Path to a Part 10 DICOM file")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newCancelCmd(callingAE, calledAE, address *string) *cobra.Command {
	var (
		messageID   uint16
		sopClassUID string
	)
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Send a C-CANCEL-RQ for a pending C-FIND/C-MOVE/C-GET operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			assoc, err := connect(*callingAE, *calledAE, *address)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer assoc.Close()

			if err := assoc.SendCCancel(messageID, sopClassUID); err != nil {
				return fmt.Errorf("C-CANCEL: %w", err)
			}
			fmt.Printf("C-CANCEL sent for message ID %d\n", messageID)
			return nil
		},
	}
	cmd.Flags().Uint16Var(&messageID, "message-id", 0, "Message ID of the operation to cancel")
	cmd.Flags().StringVar(&sopClassUID, "sop-class", "", "SOP Class UID the operation was sent under")
	cmd.MarkFlagRequired("message-id")
	cmd.MarkFlagRequired("sop-class")
	return cmd
}
