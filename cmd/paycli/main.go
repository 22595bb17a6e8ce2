package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/storefront-pay/internal/config"
	"github.com/noah-isme/storefront-pay/internal/coupon"
	"github.com/noah-isme/storefront-pay/pkg/paymentclient"
)

const usage = `usage: paycli <command> [flags]

commands:
  create    create a payment intent
  get       fetch a payment intent
  confirm   confirm a payment intent
  shipping  quote shipping for a country
  coupon    apply a coupon to an amount
  seed-coupons  write coupons to Redis (REDIS_URL) from a catalog
`

func main() {
	log.SetFlags(0)
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	cfg, err := config.Load()
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := args[0]
	out, err := run(ctx, cfg, cmd, args[1:])
	if err != nil {
		var httpErr *paymentclient.HTTPError
		if errors.As(err, &httpErr) {
			printJSON(httpErr.Body)
			log.Printf("%s: status %d", cmd, httpErr.StatusCode)
			return 1
		}
		log.Printf("%s: %v", cmd, err)
		return 1
	}
	printJSON(out)
	return 0
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) (any, error) {
	if cmd == "seed-coupons" {
		return seedCoupons(ctx, cfg, args)
	}
	client := paymentclient.New(cfg.StorefrontAPIURL, paymentclient.WithTimeout(20*time.Second))
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	switch cmd {
	case "create":
		amount := fs.Float64("amount", 0, "amount in minor units")
		currency := fs.String("currency", "", "ISO currency code; server defaults to usd")
		idem := fs.String("idempotency-key", "", "Idempotency-Key header to send")
		demo := fs.Bool("demo", false, "attach a generated cart and shipping address")
		_ = fs.Parse(args)
		req := paymentclient.CheckoutRequest{Amount: *amount, Currency: *currency}
		if *demo {
			req.CartItems, req.ShippingAddress = demoCart()
		}
		if *idem != "" {
			ctx = paymentclient.WithIdempotencyKey(ctx, *idem)
		}
		return client.CreatePaymentIntent(ctx, req)
	case "get":
		id := fs.String("id", "", "payment intent id")
		_ = fs.Parse(args)
		return client.GetPaymentIntent(ctx, *id)
	case "confirm":
		id := fs.String("id", "", "payment intent id")
		method := fs.String("method", "pm_card_visa", "payment method id")
		_ = fs.Parse(args)
		return client.ConfirmPayment(ctx, paymentclient.ConfirmRequest{PaymentIntentID: *id, PaymentMethodID: *method})
	case "shipping":
		country := fs.String("country", "US", "destination country (ISO alpha-2)")
		_ = fs.Parse(args)
		return client.CalculateShipping(ctx, paymentclient.Address{Country: *country})
	case "coupon":
		code := fs.String("code", "", "coupon code")
		amount := fs.Int64("amount", 0, "order total in minor units")
		_ = fs.Parse(args)
		return client.ApplyCoupon(ctx, *code, *amount)
	default:
		return nil, fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// seedCoupons is the operator path for populating the coupon:<CODE> hashes
// the API reads when Redis is configured.
func seedCoupons(ctx context.Context, cfg *config.Config, args []string) (any, error) {
	fs := flag.NewFlagSet("seed-coupons", flag.ExitOnError)
	catalog := fs.String("catalog", cfg.CouponCatalog, "CODE:kind:value[:minSpend] entries, comma separated")
	ttl := fs.Duration("expires-in", 0, "expire the coupons after this long; 0 keeps them")
	_ = fs.Parse(args)

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	rules, err := coupon.ParseCatalog(*catalog)
	if err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	store := coupon.RedisStore{Client: client}
	seeded := make([]string, 0, len(rules))
	for _, r := range rules {
		if *ttl > 0 {
			expires := time.Now().Add(*ttl)
			r.ExpiresAt = &expires
		}
		if err := store.Save(ctx, r); err != nil {
			return nil, fmt.Errorf("save %s: %w", r.Code, err)
		}
		seeded = append(seeded, r.Code)
	}
	return map[string]any{"seeded": seeded}, nil
}

func demoCart() ([]paymentclient.CartItem, *paymentclient.Address) {
	items := make([]paymentclient.CartItem, gofakeit.Number(1, 3))
	for i := range items {
		items[i] = paymentclient.CartItem{
			ProductID: gofakeit.UUID(),
			Quantity:  gofakeit.Number(1, 4),
			Price:     gofakeit.Price(5, 120),
		}
	}
	addr := gofakeit.Address()
	return items, &paymentclient.Address{
		Name:       gofakeit.Name(),
		Line1:      addr.Street,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.Zip,
		Country:    "US",
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("encode output: %v", err)
	}
}
