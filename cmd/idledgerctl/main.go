package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	jwttoken "idledger/internal/jwt_token"
	id "idledger/pkg/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "token":
		return cmdToken(args[1:], out, errOut)
	case "fingerprint":
		return cmdFingerprint(args[1:], out, errOut)
	case "register":
		return cmdRegister(args[1:], out, errOut)
	case "attest":
		return cmdAttest(args[1:], out, errOut)
	case "revoke":
		return cmdRevoke(args[1:], out, errOut)
	case "add-verifier":
		return cmdAddVerifier(args[1:], out, errOut)
	case "status":
		return cmdStatus(args[1:], out, errOut)
	case "verifier":
		return cmdVerifier(args[1:], out, errOut)
	case "registered":
		return cmdRegistered(args[1:], out, errOut)
	case "stats":
		return cmdStats(args[1:], out, errOut)
	case "events":
		return cmdEvents(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "idledgerctl: identity ledger operator CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  idledgerctl token --account <0xaddr> [--key <secret>] [--issuer <iss>] [--audience <aud>] [--ttl 1h]")
	fmt.Fprintln(w, "  idledgerctl fingerprint --data <text> [--salt <text>]")
	fmt.Fprintln(w, "  idledgerctl register --fingerprint <0xhash>")
	fmt.Fprintln(w, "  idledgerctl attest --account <0xaddr> --proof <0xhash>")
	fmt.Fprintln(w, "  idledgerctl revoke --account <0xaddr>")
	fmt.Fprintln(w, "  idledgerctl add-verifier --address <0xaddr> --type <label>")
	fmt.Fprintln(w, "  idledgerctl status --account <0xaddr> --verifier <0xaddr>")
	fmt.Fprintln(w, "  idledgerctl verifier --address <0xaddr>")
	fmt.Fprintln(w, "  idledgerctl registered --account <0xaddr>")
	fmt.Fprintln(w, "  idledgerctl stats")
	fmt.Fprintln(w, "  idledgerctl events [--after <seq>] [--limit <n>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - API commands accept --url (default $IDLEDGER_URL or http://localhost:8080)")
	fmt.Fprintln(w, "  - write commands accept --token (default $IDLEDGER_TOKEN)")
	fmt.Fprintln(w, "  - token signs with --key (default $JWT_SIGNING_KEY) for development servers")
}

// apiFlags registers the flags every API command shares.
func apiFlags(fs *flag.FlagSet) (*string, *string) {
	base := fs.String("url", envOr("IDLEDGER_URL", "http://localhost:8080"), "ledger API base URL")
	token := fs.String("token", os.Getenv("IDLEDGER_TOKEN"), "bearer token")
	return base, token
}

func newFlagSet(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

func cmdToken(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("token", errOut)
	account := fs.String("account", "", "token subject address")
	key := fs.String("key", envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"), "HS256 signing key")
	issuer := fs.String("issuer", envOr("JWT_ISSUER", "idledger"), "token issuer")
	audience := fs.String("audience", envOr("JWT_AUDIENCE", "idledger-api"), "token audience")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	addr, err := id.ParseAddress(*account)
	if err != nil {
		fmt.Fprintf(errOut, "--account: %v\n", err)
		return 2
	}
	token, err := jwttoken.NewJWTService(*key, *issuer, *audience).GenerateAccessToken(addr, *ttl)
	if err != nil {
		fmt.Fprintf(errOut, "sign token: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, token)
	return 0
}

func cmdFingerprint(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("fingerprint", errOut)
	data := fs.String("data", "", "identity document text")
	salt := fs.String("salt", "", "per-identity salt")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *data == "" {
		fmt.Fprintln(errOut, "usage: idledgerctl fingerprint --data <text> [--salt <text>]")
		return 2
	}
	_, _ = fmt.Fprintln(out, id.DeriveFingerprint([]byte(*data), []byte(*salt)).String())
	return 0
}

func cmdRegister(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("register", errOut)
	base, token := apiFlags(fs)
	fingerprint := fs.String("fingerprint", "", "identity fingerprint (0x + 64 hex)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	c := newClient(*base, *token)
	return c.do(http.MethodPost, "/identities", map[string]string{"fingerprint": *fingerprint}, out, errOut)
}

func cmdAttest(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("attest", errOut)
	base, token := apiFlags(fs)
	account := fs.String("account", "", "identity address")
	proof := fs.String("proof", "", "claimed fingerprint")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	c := newClient(*base, *token)
	return c.do(http.MethodPost, "/identities/"+url.PathEscape(*account)+"/attestations", map[string]string{"proof": *proof}, out, errOut)
}

func cmdRevoke(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("revoke", errOut)
	base, token := apiFlags(fs)
	account := fs.String("account", "", "identity address")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	c := newClient(*base, *token)
	return c.do(http.MethodDelete, "/identities/"+url.PathEscape(*account)+"/attestations", nil, out, errOut)
}

func cmdAddVerifier(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("add-verifier", errOut)
	base, token := apiFlags(fs)
	address := fs.String("address", "", "verifier address")
	verifierType := fs.String("type", "", "verifier type label")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	c := newClient(*base, *token)
	body := map[string]string{"address": *address, "verifier_type": *verifierType}
	return c.do(http.MethodPost, "/verifiers", body, out, errOut)
}

func cmdStatus(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("status", errOut)
	base, _ := apiFlags(fs)
	account := fs.String("account", "", "identity address")
	verifier := fs.String("verifier", "", "verifier address")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	c := newClient(*base, "")
	path := "/identities/" + url.PathEscape(*account) + "/attestations/" + url.PathEscape(*verifier)
	return c.do(http.MethodGet, path, nil, out, errOut)
}

func cmdVerifier(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("verifier", errOut)
	base, _ := apiFlags(fs)
	address := fs.String("address", "", "verifier address")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return newClient(*base, "").do(http.MethodGet, "/verifiers/"+url.PathEscape(*address), nil, out, errOut)
}

func cmdRegistered(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("registered", errOut)
	base, _ := apiFlags(fs)
	account := fs.String("account", "", "identity address")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return newClient(*base, "").do(http.MethodGet, "/identities/"+url.PathEscape(*account), nil, out, errOut)
}

func cmdStats(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("stats", errOut)
	base, _ := apiFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return newClient(*base, "").do(http.MethodGet, "/ledger/stats", nil, out, errOut)
}

func cmdEvents(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("events", errOut)
	base, _ := apiFlags(fs)
	after := fs.Uint64("after", 0, "return events with a greater sequence")
	limit := fs.Int("limit", 0, "page size (server default when 0)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	q := url.Values{}
	q.Set("after", strconv.FormatUint(*after, 10))
	if *limit > 0 {
		q.Set("limit", strconv.Itoa(*limit))
	}
	return newClient(*base, "").do(http.MethodGet, "/ledger/events?"+q.Encode(), nil, out, errOut)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
