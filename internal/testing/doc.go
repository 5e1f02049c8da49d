// Package testing provides test utilities and fixtures shared by package tests.
//
//   - TestContext: a context bounded to the test lifetime
//   - PayloadBuilder: webhook request bodies in the batch, single and deleted shapes
//   - Sign: the X-Webhook-Signature value for a body
//   - FakeSwitch: an in-process SSH server emulating a Cisco IOS CLI
//
// Usage:
//
//	body := testing.NewBatchPayload("EVENT_START").
//	    WithUser("alice").
//	    WithEvent("evt-1", "restart-srv01", start, end).
//	    Build()
//
//	sw := testing.NewFakeSwitch(t, testing.WithEnableSecret("s3cret"))
package testing
