package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "studioledger-cli",
		Short: "StudioLedger CLI tool",
		Long:  `A command line interface for interacting with the StudioLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the StudioLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		balancesCmd(),
		movementsCmd(),
		convertCmd(),
		feeCmd(),
		planCmd(),
		ratesCmd(),
		consistencyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func balancesCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "balances <kind>",
		Short: "Show balances for an account (master, admin or project)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts/" + args[0] + "/balances"
			if projectID != "" {
				path += "?project_id=" + projectID
			}

			return getAndPrint(path)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required for project accounts)")

	return cmd
}

func movementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movements",
		Short: "Movement operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent movements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/api/v1/movements/")
		},
	}

	var (
		kind        string
		source      string
		destination string
		amount      string
		currency    string
		description string
		projectID   string
	)

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Record a movement",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"kind":        kind,
				"amount":      amount,
				"currency":    currency,
				"description": description,
			}
			if source != "" {
				body["source"] = map[string]string{"kind": source, "project_id": projectID}
			}
			if destination != "" {
				body["destination"] = map[string]string{"kind": destination, "project_id": projectID}
			}

			return postAndPrint("/api/v1/movements/", body)
		},
	}

	recordCmd.Flags().StringVar(&kind, "kind", "", "Movement kind (income, expense, ...)")
	recordCmd.Flags().StringVar(&source, "source", "", "Source account kind")
	recordCmd.Flags().StringVar(&destination, "destination", "", "Destination account kind")
	recordCmd.Flags().StringVar(&amount, "amount", "", "Amount")
	recordCmd.Flags().StringVar(&currency, "currency", "ARS", "Currency (ARS or USD)")
	recordCmd.Flags().StringVar(&description, "description", "", "Description")
	recordCmd.Flags().StringVar(&projectID, "project", "", "Project ID for project accounts")

	cmd.AddCommand(listCmd, recordCmd)

	return cmd
}

func convertCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "convert <amount> <from> <to>",
		Short: "Convert currency inside the master account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint("/api/v1/conversions/", map[string]any{
				"amount":        args[0],
				"from_currency": args[1],
				"to_currency":   args[2],
				"source":        source,
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "blue", "Rate source (blue or official)")

	return cmd
}

func feeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Administrator fee operations",
	}

	var (
		projectID     string
		amount        string
		currency      string
		installmentID string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pending fee for a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint("/api/v1/fees/", map[string]any{
				"project_id":     projectID,
				"payment_amount": amount,
				"currency":       currency,
				"installment_id": installmentID,
			})
		},
	}

	createCmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	createCmd.Flags().StringVar(&amount, "amount", "", "Payment amount")
	createCmd.Flags().StringVar(&currency, "currency", "ARS", "Currency")
	createCmd.Flags().StringVar(&installmentID, "installment", "", "Installment ID")

	collectCmd := &cobra.Command{
		Use:   "collect <fee-id>",
		Short: "Collect a pending fee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint("/api/v1/fees/"+args[0]+"/collect", nil)
		},
	}

	var reason string

	cancelCmd := &cobra.Command{
		Use:   "cancel <fee-id>",
		Short: "Cancel a pending fee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint("/api/v1/fees/"+args[0]+"/cancel", map[string]any{
				"reason": reason,
			})
		},
	}

	cancelCmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason")

	listCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's fees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/api/v1/projects/" + args[0] + "/fees")
		},
	}

	cmd.AddCommand(createCmd, collectCmd, cancelCmd, listCmd)

	return cmd
}

func planCmd() *cobra.Command {
	var (
		policy      string
		total       string
		downPayment string
		count       int
		cadence     string
		start       string
		currency    string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview an installment plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint("/api/v1/plans/preview", map[string]any{
				"policy":       policy,
				"total":        total,
				"down_payment": downPayment,
				"count":        count,
				"cadence":      cadence,
				"start":        start,
				"currency":     currency,
			})
		},
	}

	cmd.Flags().StringVar(&policy, "policy", "equal", "Plan policy (equal, milestone, progressive)")
	cmd.Flags().StringVar(&total, "total", "", "Total amount")
	cmd.Flags().StringVar(&downPayment, "down-payment", "0", "Down payment")
	cmd.Flags().IntVar(&count, "count", 1, "Number of installments")
	cmd.Flags().StringVar(&cadence, "cadence", "monthly", "Cadence (monthly, biweekly, weekly)")
	cmd.Flags().StringVar(&start, "start", "", "First due date (RFC 3339)")
	cmd.Flags().StringVar(&currency, "currency", "ARS", "Currency")

	return cmd
}

func ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates [source]",
		Short: "Show current exchange rates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return getAndPrint("/api/v1/rates/" + args[0])
			}

			return getAndPrint("/api/v1/rates/")
		},
	}
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that balances match movement history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/api/v1/consistency")
		},
	}
}

func getAndPrint(path string) error {
	client := &http.Client{Timeout: timeout}

	resp, err := client.Get(baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func postAndPrint(path string, body any) error {
	client := &http.Client{Timeout: timeout}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}

		payload = bytes.NewReader(data)
	}

	resp, err := client.Post(baseURL+path, "application/json", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(data), 200))
	}

	if len(data) == 0 {
		fmt.Println("OK")
		return nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		fmt.Println(string(data))
		return nil
	}

	printJSON(decoded)

	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}

	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max-3] + "..."
}
