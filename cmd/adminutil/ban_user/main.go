package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/sudo-init-do/campusmarket/internal/db"
)

func main() {
	email := flag.String("email", "", "Email of the user to ban")
	unban := flag.Bool("unban", false, "Lift the ban instead")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run cmd/adminutil/ban_user/main.go -email user@campus.edu [-unban]")
	}

	_ = godotenv.Load()
	db.Init()

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET is_banned = $1, updated_at = NOW() WHERE email = $2`, !*unban, *email)
	if err != nil {
		log.Fatalf("failed to update user: %v", err)
	}
	if ct.RowsAffected() == 0 {
		log.Fatalf("no user found with email: %s", *email)
	}

	if *unban {
		fmt.Printf("User %s unbanned.\n", *email)
	} else {
		fmt.Printf("User %s banned.\n", *email)
	}
}
