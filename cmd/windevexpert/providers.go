package main

// Notifier blank imports: each import registers a notifier factory.

import (
	_ "github.com/windevexpert/windevexpert/internal/adapter/discord"
	_ "github.com/windevexpert/windevexpert/internal/adapter/email"
	_ "github.com/windevexpert/windevexpert/internal/adapter/slack"
)
