package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"sulabh/backend/internal/complaint"
	"sulabh/backend/internal/config"
	"sulabh/backend/internal/identity"
	"sulabh/backend/internal/logger"
	"sulabh/backend/internal/models"
	"sulabh/backend/internal/notify"
	"sulabh/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the connections shared by every subcommand.
type app struct {
	out      io.Writer
	log      *slog.Logger
	provider *identity.GormProvider
	store    *complaint.Store
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:          "admin",
		Short:        "SULABH operator tools",
		Long:         `Operator commands for the SULABH grievance backend: promote staff accounts, assign complaints and run maintenance passes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect(cmd.Context())
		},
	}

	root.AddCommand(
		newSetRoleCommand(a),
		newAssignCommand(a),
		newEscalateCommand(a),
		newStatsCommand(a),
	)
	return root
}

// connect opens the database and loads the complaint store. Redis is optional:
// when reachable, changes are announced to the running servers.
func (a *app) connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.log = logger.Init(cfg.Logger)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	// admin never opens sessions, so no session store, tokens or hasher
	a.provider = identity.NewGormProvider(db, nil, nil, nil, cfg.Auth.TokenTTL, a.log)

	opts := []complaint.Option{
		complaint.WithLogger(a.log),
		complaint.WithMissingPolicy(complaint.RejectMissing),
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.log.Warn("redis unavailable, running servers will not be notified", "error", err)
	} else {
		opts = append(opts, complaint.WithNotifier(notify.NewManagerService(rdb, a.log)))
	}

	a.store = complaint.NewStore(storage.NewStorageService(db, a.log), opts...)
	return a.store.Load(ctx)
}

func newSetRoleCommand(a *app) *cobra.Command {
	var department string
	cmd := &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change the role of an account",
		Long:  `Change the role of an account to citizen, authority, admin or ngo. Authorities usually get a department too.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dept *string
			if cmd.Flags().Changed("department") {
				dept = &department
			}
			user, err := setRole(cmd.Context(), a.provider, args[0], models.Role(args[1]), dept)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", "", "Department the account belongs to")
	return cmd
}

func newAssignCommand(a *app) *cobra.Command {
	var department string
	cmd := &cobra.Command{
		Use:   "assign <complaint-id> <assignee>",
		Short: "Assign a complaint to an officer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dept *string
			if cmd.Flags().Changed("department") {
				dept = &department
			}
			if err := assign(cmd.Context(), a.store, args[0], args[1], dept); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "complaint %s assigned to %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", "", "Department handling the complaint")
	return cmd
}

func newEscalateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "escalate",
		Short: "Escalate overdue complaints now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.store.EscalateOverdue(cmd.Context())
			fmt.Fprintf(a.out, "%d complaint(s) escalated\n", n)
			return err
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print complaint statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printJSON(a.out, a.store.Statistics())
		},
	}
}

func setRole(ctx context.Context, p *identity.GormProvider, email string, role models.Role, department *string) (*models.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	user, err := p.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("no account registered with %s", email)
	}
	if err := p.UpdateProfile(ctx, user.ID, identity.ProfileUpdate{Role: &role, Department: department}); err != nil {
		return nil, err
	}
	return p.GetProfile(ctx, user.ID)
}

func assign(ctx context.Context, store *complaint.Store, id, assignee string, department *string) error {
	return store.Update(ctx, id, complaint.Patch{
		AssignedTo:         &assignee,
		AssignedDepartment: department,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
