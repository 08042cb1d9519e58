package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"paymenthub/internal/domain"
	"paymenthub/internal/middleware"
)

func jwtCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jwt",
		Short: "Mint a bearer token for an address from the shared secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("address")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			addr, err := domain.ParseAddress(raw)
			if err != nil {
				return fmt.Errorf("--address: %w", err)
			}
			if opts.secret == "" {
				return fmt.Errorf("--secret is required")
			}
			token, err := middleware.IssueToken(opts.authConfig(), addr, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringP("address", "a", "", "Address placed in the token subject")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func merchantCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchant",
		Short: "Register, revoke or list merchants",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "register [address]",
		Short: "Grant MERCHANT to an address (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.Context(), http.MethodPost, "/v1/merchants/"+args[0], nil, cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke [address]",
		Short: "Revoke MERCHANT from an address (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.Context(), http.MethodDelete, "/v1/merchants/"+args[0], nil, cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered merchants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.Context(), http.MethodGet, "/v1/merchants", nil, cmd.OutOrStdout())
		},
	})

	return cmd
}

func roleCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Grant, revoke or check ADMIN and MERCHANT roles",
	}

	for _, sub := range []struct {
		use, short, method string
	}{
		{"grant", "Grant a role (admin only)", http.MethodPost},
		{"revoke", "Revoke a role (admin only)", http.MethodDelete},
		{"has", "Check whether an address holds a role", http.MethodGet},
	} {
		method := sub.method
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use + " [role] [address]",
			Short: sub.short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := domain.ParseRole(args[0]); err != nil {
					return err
				}
				return opts.call(cmd.Context(), method, "/v1/roles/"+args[0]+"/"+args[1], nil, cmd.OutOrStdout())
			},
		})
	}

	return cmd
}

func statusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the platform configuration and pause state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.Context(), http.MethodGet, "/v1/platform", nil, cmd.OutOrStdout())
		},
	}
}

func pauseCmd(opts *options, pause bool) *cobra.Command {
	use, short := "unpause", "Resume checkouts (admin only)"
	if pause {
		use, short = "pause", "Stop accepting checkouts (admin only)"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.Context(), http.MethodPost, "/v1/platform/"+use, nil, cmd.OutOrStdout())
		},
	}
}

func feeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Fee calculations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "quote [amount]",
		Short: "Show the fee and merchant amount for a gross amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gross, err := opts.units(args[0])
			if err != nil {
				return err
			}
			q := url.Values{"gross_amount": {strconv.FormatUint(gross, 10)}}
			return opts.call(cmd.Context(), http.MethodGet, "/v1/fees/quote?"+q.Encode(), nil, cmd.OutOrStdout())
		},
	})

	return cmd
}

func paymentCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Inspect payments, check out and refund",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "id [reference]",
		Short: "Derive the payment id of an order reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.PaymentIDFromReference(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	})

	for _, sub := range []struct{ use, short, suffix string }{
		{"get", "Show a payment", ""},
		{"events", "List the events of a payment", "/events"},
		{"receipt", "Print a payment receipt", "/receipt"},
		{"refund-status", "Show whether a refund was requested or issued", "/refund-status"},
	} {
		suffix := sub.suffix
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use + " [payment-id]",
			Short: sub.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.call(cmd.Context(), http.MethodGet, "/v1/payments/"+args[0]+suffix, nil, cmd.OutOrStdout())
			},
		})
	}

	checkout := &cobra.Command{
		Use:   "checkout [merchant] [amount]",
		Short: "Pay a merchant as the caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gross, err := opts.units(args[1])
			if err != nil {
				return err
			}
			ref, _ := cmd.Flags().GetString("ref")
			id, _ := cmd.Flags().GetString("id")
			body := map[string]any{"merchant": args[0], "gross_amount": gross}
			switch {
			case id != "":
				body["payment_id"] = id
			case ref != "":
				body["reference"] = ref
			default:
				return fmt.Errorf("one of --ref or --id is required")
			}
			return opts.call(cmd.Context(), http.MethodPost, "/v1/payments", body, cmd.OutOrStdout())
		},
	}
	checkout.Flags().String("ref", "", "Order reference the payment id is derived from")
	checkout.Flags().String("id", "", "Explicit payment id")
	cmd.AddCommand(checkout)

	requestRefund := &cobra.Command{
		Use:   "request-refund [payment-id]",
		Short: "Ask for a refund as the payment's consumer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			return opts.call(cmd.Context(), http.MethodPost, "/v1/payments/"+args[0]+"/refund-request",
				map[string]string{"reason": reason}, cmd.OutOrStdout())
		},
	}
	requestRefund.Flags().StringP("reason", "r", "", "Reason shown to the merchant")
	cmd.AddCommand(requestRefund)

	for _, sub := range []struct{ use, short, path string }{
		{"merchant-refund", "Refund as the payment's merchant", "/merchant-refund"},
		{"admin-refund", "Refund as an admin", "/admin-refund"},
	} {
		path := sub.path
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use + " [payment-id] [amount]",
			Short: sub.short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				units, err := opts.units(args[1])
				if err != nil {
					return err
				}
				return opts.call(cmd.Context(), http.MethodPost, "/v1/payments/"+args[0]+path,
					map[string]uint64{"amount": units}, cmd.OutOrStdout())
			},
		})
	}

	return cmd
}

func faucetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "faucet [address] [amount]",
		Short: "Mint test tokens to an address (faucet must be enabled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := opts.units(args[1])
			if err != nil {
				return err
			}
			return opts.call(cmd.Context(), http.MethodPost, "/v1/token/faucet",
				map[string]any{"to": args[0], "amount": units}, cmd.OutOrStdout())
		},
	}
}

func approveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "approve [amount]",
		Short: "Allow the custody account to pull up to amount from the caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := opts.units(args[0])
			if err != nil {
				return err
			}
			return opts.call(cmd.Context(), http.MethodPost, "/v1/token/approve",
				map[string]uint64{"amount": units}, cmd.OutOrStdout())
		},
	}
}

func balanceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [address]",
		Short: "Show the token balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/token/balances/" + args[0]
			if allowance, _ := cmd.Flags().GetBool("allowance"); allowance {
				path = "/v1/token/allowances/" + args[0]
			}
			return opts.call(cmd.Context(), http.MethodGet, path, nil, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Bool("allowance", false, "Show the custody allowance instead of the balance")

	return cmd
}
