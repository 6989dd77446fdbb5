package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"civiclens/backend/internal/analysis"
	"civiclens/backend/internal/complaint"
	"civiclens/backend/internal/config"
	"civiclens/backend/internal/export"
	"civiclens/backend/internal/logger"
	"civiclens/backend/internal/models"
	"civiclens/backend/internal/storage"

	"github.com/joho/godotenv"
)

const usage = `Usage: admin <command> [args]

Commands:
  list                                         list complaints, officer order
  transition <id> <action> [image] [notes]     apply a lifecycle action
  verify <id> <status> <suspicious>            record a verification verdict
  dashboard                                    print dashboard metrics
  export <file.xlsx>                           write complaints and dashboard to Excel

Run against the same STORAGE_BACKEND as the server, while the server is stopped.`

var errUsage = errors.New("invalid arguments")

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg, err := logger.NewLogger("warn", "console", "civiclens-admin")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer backend.Close()

	store := complaint.NewStore(backend.Storage, lg)
	if err := store.Load(ctx); err != nil {
		log.Fatalf("failed to load complaints: %v", err)
	}
	svc := complaint.NewService(store, analysis.NewClassifier(nil, 0, lg), lg)

	if err := run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(usage)
		}
		backend.Close()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, svc *complaint.Service, args []string, out io.Writer) error {
	switch args[0] {
	case "list":
		return listComplaints(svc, out)

	case "transition":
		if len(args) < 3 {
			return errUsage
		}
		action, err := complaint.ParseAction(args[2])
		if err != nil {
			return err
		}
		req := complaint.TransitionRequest{Action: action}
		if len(args) > 3 {
			req.ResolutionImageName = args[3]
		}
		if len(args) > 4 {
			req.ResolutionNotes = args[4]
		}
		c, err := svc.Transition(ctx, args[1], req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Complaint %s is now %s.\n", c.ID, c.Status)
		return nil

	case "verify":
		if len(args) != 4 {
			return errUsage
		}
		suspicious, err := strconv.ParseBool(args[3])
		if err != nil {
			return fmt.Errorf("%w: suspicious must be true or false", errUsage)
		}
		c, err := svc.RecordVerification(ctx, args[1], models.Verification{Status: args[2], IsSuspicious: suspicious})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Complaint %s verification recorded: %s.\n", c.ID, c.Verification.Status)
		return nil

	case "dashboard":
		printDashboard(svc, out)
		return nil

	case "export":
		if len(args) != 2 {
			return errUsage
		}
		data, err := export.Workbook(svc.List(), svc.DashboardSnapshot(), svc.Escalation)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", args[1], err)
		}
		fmt.Fprintf(out, "Exported %d complaints to %s.\n", svc.Store.Len(), args[1])
		return nil

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func listComplaints(svc *complaint.Service, out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tURGENCY\tSTATUS\tESCALATION\tCATEGORY\tWARD\tCREATED")
	for _, c := range svc.ListForOfficerView() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Urgency, c.Status, svc.EscalationFor(c).Class, c.Type, c.Ward,
			c.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func printDashboard(svc *complaint.Service, out io.Writer) {
	snap := svc.DashboardSnapshot()
	fmt.Fprintf(out, "Ward Performance Index: %d\n", snap.WPI.Score)
	fmt.Fprintf(out, "Total: %d  Pending: %d  Resolved: %d  Reopened: %d  Suspicious: %d  Escalated: %d\n",
		snap.Total, snap.Pending, snap.Resolved, snap.Reopened, snap.Suspicious, snap.EscalatedCount)
	fmt.Fprintf(out, "Average resolution: %.1f days\n", snap.AvgResolutionDays)
	for _, share := range snap.Categories {
		fmt.Fprintf(out, "  %-20s %3d  %5.1f%%\n", share.Category, share.Count, share.Percentage)
	}
}
