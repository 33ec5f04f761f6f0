// cmd/seed/main.go
//
// Seeds a demo user with an account, subscriptions and achievements.
// Safe to re-run: existing records are left alone.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"smartmoney/internal/config"
	"smartmoney/internal/domain"
	"smartmoney/internal/storage/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

const demoEmail = "demo@example.com"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.MustLoad()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DBConn)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStorage(pool)

	user, err := store.UserByEmail(ctx, demoEmail)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		user, err = store.CreateUser(ctx,
			domain.User{
				Email:        demoEmail,
				PasswordHash: "hashed",
				FullName:     "Demo User",
				CurrencyPref: "₦",
			},
			domain.Account{
				InstitutionName: "GTBank",
				AccountType:     "Savings",
				Balance:         450000.0,
			})
		if err != nil {
			slog.Error("Failed to create demo user", "error", err)
			os.Exit(1)
		}
		slog.Info("🌱 Demo user created", "user_id", user.ID)
	case err != nil:
		slog.Error("Failed to look up demo user", "error", err)
		os.Exit(1)
	default:
		slog.Info("Demo user already exists", "user_id", user.ID)
	}

	subs, err := store.Subscriptions(ctx, user.ID)
	if err != nil {
		slog.Error("Failed to list subscriptions", "error", err)
		os.Exit(1)
	}
	if len(subs) == 0 {
		slog.Info("🌱 Seeding subscriptions")
		for _, sub := range demoSubscriptions {
			sub.UserID = user.ID
			if err := store.CreateSubscription(ctx, sub); err != nil {
				slog.Error("Failed to seed subscription", "error", err, "name", sub.Name)
				os.Exit(1)
			}
		}
	}

	achs, err := store.Achievements(ctx, user.ID)
	if err != nil {
		slog.Error("Failed to list achievements", "error", err)
		os.Exit(1)
	}
	if len(achs) == 0 {
		slog.Info("🌱 Seeding achievements")
		for _, ach := range demoAchievements {
			ach.UserID = user.ID
			if err := store.CreateAchievement(ctx, ach); err != nil {
				slog.Error("Failed to seed achievement", "error", err, "title", ach.Title)
				os.Exit(1)
			}
		}
	}

	slog.Info("✅ Seeding complete", "user_id", user.ID)
}

var demoSubscriptions = []domain.Subscription{
	{Name: "Netflix Premium", Price: 4500, DueDate: "Oct 23", Cycle: "Monthly", LogoText: "N", Color: "bg-red-600"},
	{Name: "Spotify Duo", Price: 1900, DueDate: "Nov 01", Cycle: "Monthly", LogoText: "S", Color: "bg-green-500"},
	{Name: "Spectranet", Price: 21000, DueDate: "Oct 30", Cycle: "Monthly", LogoText: "Sp", Color: "bg-blue-600"},
	{Name: "Apple Music", Price: 1000, DueDate: "Nov 15", Cycle: "Monthly", LogoText: "A", Color: "bg-pink-500"},
	{Name: "DSTV Premium", Price: 29500, DueDate: "Nov 05", Cycle: "Monthly", LogoText: "D", Color: "bg-sky-500"},
	{Name: "YouTube Prem", Price: 1100, DueDate: "Nov 20", Cycle: "Monthly", LogoText: "Y", Color: "bg-red-500"},
	{Name: "Showmax", Price: 2900, DueDate: "Nov 10", Cycle: "Monthly", LogoText: "Sh", Color: "bg-purple-600"},
	{Name: "iCloud+", Price: 900, DueDate: "Nov 02", Cycle: "Monthly", LogoText: "iC", Color: "bg-blue-400"},
}

var demoAchievements = []domain.Achievement{
	{Title: "Savings Ninja", Description: "Save 20% of income", Progress: 100, Completed: true, IconType: "Zap", ColorClass: "text-yellow-500 bg-yellow-100"},
	{Title: "Budget Boss", Description: "Stay under budget", Progress: 65, IconType: "Target", ColorClass: "text-emerald-500 bg-emerald-100"},
	{Title: "Debt Destroyer", Description: "Pay off a loan", Progress: 0, IconType: "Shield", ColorClass: "text-purple-500 bg-purple-100"},
	{Title: "Safety Net", Description: "Save 3 months expenses", Progress: 40, IconType: "Shield", ColorClass: "text-blue-500 bg-blue-100"},
	{Title: "Streak Master", Description: "Login 7 days in a row", Progress: 85, IconType: "Zap", ColorClass: "text-orange-500 bg-orange-100"},
	{Title: "Investor", Description: "Open an investment account", Progress: 0, IconType: "Target", ColorClass: "text-green-500 bg-green-100"},
}
