package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fatflowers/payport/internal/platform/gateway"
	"github.com/fatflowers/payport/pkg/config"
)

// checksumCmd signs webhook and redirect test payloads with the configured access key.
func checksumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksum",
		Short: "Compute gateway checksums for test payloads",
	}
	cmd.AddCommand(webhookChecksumCmd(), redirectChecksumCmd())
	return cmd
}

func accessKey(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := config.New()
	if err != nil {
		return "", err
	}
	if cfg.Gateway.AccessKey == "" {
		return "", fmt.Errorf("no access key configured, pass --access-key")
	}
	return cfg.Gateway.AccessKey, nil
}

func webhookChecksumCmd() *cobra.Command {
	var key, tid, eventType, status, amount, currency string
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Checksum of a webhook event",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := accessKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), gateway.WebhookChecksum(tid, eventType, status, amount, currency, k))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "access-key", "", "Payment access key (defaults to the configured one)")
	cmd.Flags().StringVar(&tid, "tid", "", "event.tid")
	cmd.Flags().StringVar(&eventType, "type", "PAYMENT", "event.type")
	cmd.Flags().StringVar(&status, "status", "SUCCESS", "result.status")
	cmd.Flags().StringVar(&amount, "amount", "", "transaction.amount, if sent")
	cmd.Flags().StringVar(&currency, "currency", "", "transaction.currency, if sent")
	_ = cmd.MarkFlagRequired("tid")

	return cmd
}

func redirectChecksumCmd() *cobra.Command {
	var key, tid, secret, status string
	cmd := &cobra.Command{
		Use:   "redirect",
		Short: "Checksum of a redirect return",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := accessKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), gateway.RedirectChecksum(tid, secret, status, k))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "access-key", "", "Payment access key (defaults to the configured one)")
	cmd.Flags().StringVar(&tid, "tid", "", "Transaction id")
	cmd.Flags().StringVar(&secret, "txn-secret", "", "Transaction secret of the payment call")
	cmd.Flags().StringVar(&status, "status", "SUCCESS", "Status of the return")
	_ = cmd.MarkFlagRequired("tid")
	_ = cmd.MarkFlagRequired("txn-secret")

	return cmd
}
