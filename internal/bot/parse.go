package bot

import (
	"fmt"
	"strconv"
	"strings"

	"headlines/internal/model"
)

// SubscribeArgs holds the parsed arguments of /subscribe.
type SubscribeArgs struct {
	Category model.Category
	Query    string
}

// ParseSubscribeArgs parses arguments for /subscribe.
// Format: <category> [query...]
func ParseSubscribeArgs(args string) (SubscribeArgs, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return SubscribeArgs{}, fmt.Errorf("usage: /subscribe <category> [query]")
	}

	cat, err := model.ParseCategory(parts[0])
	if err != nil {
		return SubscribeArgs{}, fmt.Errorf("%w, see /categories", err)
	}

	return SubscribeArgs{
		Category: cat,
		Query:    strings.Join(parts[1:], " "),
	}, nil
}

// ParseCategoryArg returns the category named in args, or home when args
// is empty.
func ParseCategoryArg(args string) (model.Category, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return model.CategoryHome, nil
	}
	cat, err := model.ParseCategory(strings.Fields(s)[0])
	if err != nil {
		return "", fmt.Errorf("%w, see /categories", err)
	}
	return cat, nil
}

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("subscription ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subscription ID %q", s)
	}
	return id, nil
}
