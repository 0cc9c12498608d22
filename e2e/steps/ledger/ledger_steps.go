package ledger

import (
	"context"
	"net/http"

	"github.com/cucumber/godog"

	id "idledger/pkg/domain"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path, actor string, body any) error
	Address(actor string) id.Address
}

// RegisterSteps registers identity and verifier step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	// Verifier management
	ctx.Step(`^"([^"]*)" authorizes verifier "([^"]*)" as "([^"]*)"$`, steps.addVerifier)
	ctx.Step(`^I look up verifier "([^"]*)"$`, steps.getVerifier)

	// Identity lifecycle
	ctx.Step(`^"([^"]*)" registers the fingerprint of "([^"]*)"$`, steps.registerDocument)
	ctx.Step(`^"([^"]*)" registers the zero fingerprint$`, steps.registerZero)
	ctx.Step(`^"([^"]*)" attests "([^"]*)" with the fingerprint of "([^"]*)"$`, steps.attest)
	ctx.Step(`^"([^"]*)" revokes the attestation on "([^"]*)"$`, steps.revoke)

	// Queries
	ctx.Step(`^I check whether "([^"]*)" is registered$`, steps.isRegistered)
	ctx.Step(`^I check the verification of "([^"]*)" by "([^"]*)"$`, steps.checkStatus)
}

type ledgerSteps struct {
	tc TestContext
}

func (s *ledgerSteps) fingerprint(document string) string {
	return id.DeriveFingerprint([]byte(document), nil).String()
}

func (s *ledgerSteps) addVerifier(ctx context.Context, caller, verifier, verifierType string) error {
	body := map[string]string{
		"address":       s.tc.Address(verifier).String(),
		"verifier_type": verifierType,
	}
	return s.tc.Do(http.MethodPost, "/verifiers", caller, body)
}

func (s *ledgerSteps) getVerifier(ctx context.Context, verifier string) error {
	return s.tc.Do(http.MethodGet, "/verifiers/"+s.tc.Address(verifier).String(), "", nil)
}

func (s *ledgerSteps) registerDocument(ctx context.Context, caller, document string) error {
	return s.tc.Do(http.MethodPost, "/identities", caller, map[string]string{"fingerprint": s.fingerprint(document)})
}

func (s *ledgerSteps) registerZero(ctx context.Context, caller string) error {
	return s.tc.Do(http.MethodPost, "/identities", caller, map[string]string{"fingerprint": id.ZeroFingerprint.String()})
}

func (s *ledgerSteps) attest(ctx context.Context, verifier, target, document string) error {
	path := "/identities/" + s.tc.Address(target).String() + "/attestations"
	return s.tc.Do(http.MethodPost, path, verifier, map[string]string{"proof": s.fingerprint(document)})
}

func (s *ledgerSteps) revoke(ctx context.Context, verifier, target string) error {
	path := "/identities/" + s.tc.Address(target).String() + "/attestations"
	return s.tc.Do(http.MethodDelete, path, verifier, nil)
}

func (s *ledgerSteps) isRegistered(ctx context.Context, account string) error {
	return s.tc.Do(http.MethodGet, "/identities/"+s.tc.Address(account).String(), "", nil)
}

func (s *ledgerSteps) checkStatus(ctx context.Context, target, verifier string) error {
	path := "/identities/" + s.tc.Address(target).String() + "/attestations/" + s.tc.Address(verifier).String()
	return s.tc.Do(http.MethodGet, path, "", nil)
}
