package apexindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// benchApexSource is a realistic Apex service class for exercising the full
// extraction pipeline. %s is the class name so generated files stay distinct.
const benchApexSource = `public class %s {
    private static final Integer MAX_BATCH = 200;

    private AccountRepository repo;
    private NotificationGateway gateway;

    public %s(AccountRepository repo, NotificationGateway gateway) {
        this.repo = repo;
        this.gateway = gateway;
    }

    public List<Account> loadActive(Set<Id> accountIds) {
        List<Account> accounts = repo.findByIds(accountIds);
        List<Account> active = new List<Account>();
        for (Account acct : accounts) {
            if (acct.IsActive__c) {
                active.add(acct);
            }
        }
        return active;
    }

    public void notifyOwners(List<Account> accounts) {
        for (Account acct : accounts) {
            gateway.send(acct.OwnerId, buildMessage(acct));
        }
    }

    private String buildMessage(Account acct) {
        return 'Account ' + acct.Name + ' was updated';
    }
}
`

// benchWorkspace writes n generated classes under a marker-bearing root.
func benchWorkspace(b *testing.B, n int) string {
	b.Helper()
	root := b.TempDir()
	if err := os.WriteFile(filepath.Join(root, "sfdx-project.json"), []byte("{}"), 0o644); err != nil {
		b.Fatal(err)
	}
	dir := filepath.Join(root, "force-app", "classes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Service%03d", i)
		src := fmt.Sprintf(benchApexSource, name, name)
		if err := os.WriteFile(filepath.Join(dir, name+".cls"), []byte(src), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return root
}

func BenchmarkRebuildAll_50Files(b *testing.B) {
	root := benchWorkspace(b, 50)
	e := New()
	if err := e.Initialize(context.Background(), root); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.RebuildAll(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIndexFile(b *testing.B) {
	root := benchWorkspace(b, 1)
	e := New()
	if err := e.Initialize(context.Background(), root); err != nil {
		b.Fatal(err)
	}
	path := filepath.Join(root, "force-app", "classes", "Service000.cls")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.IndexFile(context.Background(), path); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFindReferences(b *testing.B) {
	root := benchWorkspace(b, 50)
	e := New()
	if err := e.Initialize(context.Background(), root); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if locs := e.FindReferences("AccountRepository"); len(locs) == 0 {
			b.Fatal("expected references")
		}
	}
}
