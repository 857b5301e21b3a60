package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/ssocache/cache"
)

func exampleClock() time.Time {
	return time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
}

func ExampleNew() {
	c, err := cache.New(cache.Config{
		Store: cache.NewMemStore(),
		Clock: exampleClock,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	ctx := context.Background()
	key := cache.TokenKey{
		StartURL: "https://example.awsapps.com/start",
		Region:   "us-east-1",
		Scopes:   []string{"sso:account:access"},
	}

	tok := &cache.AccessToken{
		StartURL:    key.StartURL,
		Region:      key.Region,
		AccessToken: "example-token",
		ExpiresAt:   cache.NewInstant(exampleClock().Add(8 * time.Hour)),
	}
	_ = c.SaveToken(ctx, key, tok)

	loaded, ok := c.LoadToken(ctx, key, "example")
	fmt.Println("found:", ok)
	fmt.Println("token:", loaded.AccessToken)
	// Output:
	// found: true
	// token: example-token
}

func ExampleCache_LoadToken() {
	c, _ := cache.New(cache.Config{
		Store: cache.NewMemStore(),
		Clock: exampleClock,
	})
	ctx := context.Background()
	key := cache.TokenKey{StartURL: "https://example.awsapps.com/start"}

	// Nothing cached yet: a miss, never an error.
	_, ok := c.LoadToken(ctx, key, "example")
	fmt.Println("found before save:", ok)

	// A token inside the 15-minute margin is also a miss.
	_ = c.SaveToken(ctx, key, &cache.AccessToken{
		AccessToken: "nearly-expired",
		ExpiresAt:   cache.NewInstant(exampleClock().Add(10 * time.Minute)),
	})
	_, ok = c.LoadToken(ctx, key, "example")
	fmt.Println("found near expiry:", ok)
	// Output:
	// found before save: false
	// found near expiry: false
}

func ExampleCache_InvalidateToken() {
	c, _ := cache.New(cache.Config{
		Store: cache.NewMemStore(),
		Clock: exampleClock,
	})
	ctx := context.Background()
	key := cache.TokenKey{StartURL: "https://example.awsapps.com/start"}

	// Invalidation succeeds whether or not anything is cached.
	fmt.Println("error:", c.InvalidateToken(ctx, key))
	fmt.Println("error:", c.InvalidateToken(ctx, key))
	// Output:
	// error: <nil>
	// error: <nil>
}
