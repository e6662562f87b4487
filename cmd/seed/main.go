// Command main runs the database seeder for Inkwell.
package main

import (
	"context"
	"flag"
	"log"

	"inkwell/internal/bootstrap"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/seed"
)

func main() {
	fakePosts := flag.Int("fake", 0, "Number of fake posts to add on top of the fixtures")
	fakeUsers := flag.Int("fake-users", 0, "Number of fake authors to create for the fake posts")
	shouldClean := flag.Bool("clean", false, "Delete all users, categories, posts and comments first")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible fake data (0 = random)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: fixtures + %d fake users, %d fake posts, clean=%v\n", *fakeUsers, *fakePosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	c := cache.New(redisClient)
	defer func() {
		_ = c.Close()
		_ = database.Close(db)
	}()

	s := seed.NewSeeder(db, seed.Options{
		FakeUsers:   *fakeUsers,
		FakePosts:   *fakePosts,
		ShouldClean: *shouldClean,
		RandSeed:    *randSeed,
	})
	if err := s.Seed(ctx); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	// A running server may hold the category list in Redis.
	c.Invalidate(ctx, cache.CategoriesKey)

	log.Println("✨ All done! Your database is now populated with demo data.")
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
