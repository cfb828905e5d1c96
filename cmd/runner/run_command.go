package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	wfsteps "github.com/Om1001-OPS/mkol/internal/workflow"
	"github.com/Om1001-OPS/mkol/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		identifier string
		secret     string
		docType    string
		action     string
		file       string
		docID      string
		idLabel    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a single workflow run",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}

			req := &workflow.Request{
				Credentials: workflow.Credentials{
					Identifier: identifier,
					Secret:     secret,
				},
				DocType:          workflow.DocType(docType),
				Action:           action,
				UploadedFilePath: file,
				DocID:            docID,
				IDLabel:          idLabel,
			}

			result, err := wfsteps.Execute(cmd.Context(), rt, req)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(result); err != nil {
				return err
			}

			if !result.Succeeded() {
				return fmt.Errorf("run faulted at step %s: %s", result.Fault.Step, result.Fault.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&identifier, "identifier", "", "identity credential identifier")
	cmd.Flags().StringVar(&secret, "secret", "", "identity credential secret")
	cmd.Flags().StringVar(&docType, "doc-type", "", "canonical document type")
	cmd.Flags().StringVar(&action, "action", "", "requested action (defaults by role)")
	cmd.Flags().StringVar(&file, "file", "", "path to the file to upload")
	cmd.Flags().StringVar(&docID, "doc-id", "", "optional document id")
	cmd.Flags().StringVar(&idLabel, "id-label", "", "optional document id label")
	cmd.MarkFlagRequired("identifier")
	cmd.MarkFlagRequired("secret")
	cmd.MarkFlagRequired("doc-type")

	return cmd
}
