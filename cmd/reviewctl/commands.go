package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wso2/financial-recommendation-api/internal/review"
	"github.com/wso2/financial-recommendation-api/internal/review/model"
	"github.com/wso2/financial-recommendation-api/internal/system/backend"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
	"github.com/wso2/financial-recommendation-api/internal/system/error/serviceerror"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/system/utils"
)

// serviceOpener builds the review service and returns a cleanup func.
type serviceOpener func(configPath string) (review.ReviewServiceInterface, func(), error)

func openService(configPath string) (review.ReviewServiceInterface, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := log.Configure("warn", cfg.Logging.Format, nil); err != nil {
		return nil, nil, err
	}
	if cfg.Database.Recommendation.Type == config.DatabaseTypeMemory {
		return nil, nil, errors.New("reviewctl needs a mysql or postgres database; the memory store lives inside the server process")
	}
	backends, err := backend.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return review.NewReviewService(backends.Reviews, backends.Directory), backends.Close, nil
}

type cli struct {
	configPath *string
	open       serviceOpener
}

// withService opens the service for one command invocation.
func (c *cli) withService(cmd *cobra.Command, fn func(ctx context.Context, svc review.ReviewServiceInterface) error) error {
	svc, closeFn, err := c.open(*c.configPath)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return fn(ctx, svc)
}

func (c *cli) queueCmd() *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List pending reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc review.ReviewServiceInterface) error {
				reviews, svcErr := svc.GetReviewQueue(ctx, order)
				if svcErr != nil {
					return asError(svcErr)
				}
				printReviewTable(cmd.OutOrStdout(), reviews)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&order, "order", "o", review.OrderNewest, "queue order: newest, oldest or user")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <reviewId>",
		Short: "Print a review with its decision trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc review.ReviewServiceInterface) error {
				r, svcErr := svc.GetReview(ctx, args[0])
				if svcErr != nil {
					return asError(svcErr)
				}
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <userId>",
		Short: "List every review recorded for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return c.withService(cmd, func(ctx context.Context, svc review.ReviewServiceInterface) error {
				reviews, svcErr := svc.ListUserReviews(ctx, userID)
				if svcErr != nil {
					return asError(svcErr)
				}
				printReviewTable(cmd.OutOrStdout(), reviews)
				return nil
			})
		},
	}
}

// decideCmd builds approve and override. Override requires notes.
func (c *cli) decideCmd(action string, notesRequired bool) *cobra.Command {
	var notes, reviewedBy string
	cmd := &cobra.Command{
		Use:   action + " <reviewId>",
		Short: strings.ToUpper(action[:1]) + action[1:] + " a pending review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(reviewedBy) == "" {
				return errors.New("--by is required")
			}
			if notesRequired && strings.TrimSpace(notes) == "" {
				return errors.New("--notes is required when overriding")
			}
			return c.withService(cmd, func(ctx context.Context, svc review.ReviewServiceInterface) error {
				decide := svc.Approve
				if action == "override" {
					decide = svc.Override
				}
				r, svcErr := decide(ctx, args[0], notes, reviewedBy)
				if svcErr != nil {
					return asError(svcErr)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "review %s is now %s\n", r.ReviewID, r.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reviewedBy, "by", "", "operator identity recorded on the review")
	cmd.Flags().StringVar(&notes, "notes", "", "operator notes")
	return cmd
}

func printReviewTable(w io.Writer, reviews []model.Review) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "no reviews")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REVIEW ID\tUSER\tSTATUS\tPERSONA\tITEMS\tCREATED")
	for _, r := range reviews {
		persona := r.DecisionTrace.Persona.Name
		if persona == "" {
			persona = "-"
		}
		items := len(r.RecommendationData.Education) + len(r.RecommendationData.PartnerOffers)
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
			r.ReviewID, r.UserID, r.Status, persona, items,
			utils.MillisToTime(r.CreatedAt).UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func asError(svcErr *serviceerror.ServiceError) error {
	if svcErr.ErrorDescription != "" {
		return fmt.Errorf("%s: %s", svcErr.Error, svcErr.ErrorDescription)
	}
	return errors.New(svcErr.Error)
}
