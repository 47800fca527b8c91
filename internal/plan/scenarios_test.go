package plan

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/script"
	k3stesting "github.com/imamik/k3sforge/internal/testing"
	"github.com/imamik/k3sforge/internal/topology"
)

var _ = Describe("Composition", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("three servers and three agents with storage and backups but no overlay", func() {
		var p *Plan

		BeforeEach(func() {
			spec := k3stesting.NewSpecBuilder().
				WithServers(3).
				WithAgents(3).
				WithOverlayVPN(false).
				WithStorageEngine(true).
				WithBackup(true).
				WithGitOps(false).
				Build()
			var err error
			p, err = Compose(ctx, spec, freshOptions())
			Expect(err).NotTo(HaveOccurred())
		})

		It("emits only the storage and cloud manifests", func() {
			Expect(p.Manifests.Names()).To(Equal([]string{
				"cloud-integration",
				"storage-engine",
				"storage-backup-credential",
				"recurring-backup-job",
			}))
		})

		It("mounts a claimed volume on every agent", func() {
			for _, s := range p.Scripts {
				if s.Node.Role != topology.RoleAgent {
					Expect(s.Steps).NotTo(ContainElement(script.StepStorageVolumeMount))
					continue
				}
				Expect(s.Steps).To(ContainElement(script.StepStorageVolumeMount))
				_, ok := p.Claims.Get(s.Node.Hostname + "-storage")
				Expect(ok).To(BeTrue())
			}
		})

		It("exposes no UI anywhere", func() {
			for _, s := range p.Scripts {
				Expect(s.Steps).NotTo(ContainElement(script.StepGitOpsUIExpose))
				Expect(s.Steps).NotTo(ContainElement(script.StepStorageUIExpose))
				Expect(s.Steps).NotTo(ContainElement(script.StepOverlayJoin))
			}
		})

		It("opens no overlay port", func() {
			for _, r := range p.Rules {
				Expect(r.Feature).NotTo(Equal("overlay_vpn"))
			}
		})
	})

	Context("GitOps without the overlay network", func() {
		It("fails validation naming the dependency", func() {
			spec := k3stesting.NewSpecBuilder().WithGitOps(true).WithOverlayVPN(false).Build()
			_, err := Compose(ctx, spec, freshOptions())

			var verrs errdefs.ValidationErrors
			Expect(err).To(BeAssignableToTypeOf(errdefs.ValidationErrors{}))
			Expect(errors.As(err, &verrs)).To(BeTrue())
			Expect(verrs.Contains("gitops requires overlay_vpn")).To(BeTrue())
		})
	})

	Context("resolving the same volume twice", func() {
		It("binds the first creation on the second call", func() {
			mem := claims.NewMemory()
			resolver := claims.NewResolver(claims.WithBackend(claims.KindVolume, mem))

			first, err := resolver.Resolve(ctx, claims.Request{
				LogicalName: "lab-agent-0-storage",
				Kind:        claims.KindVolume,
				Policy:      claims.PolicyForceRecreate,
				SizeGiB:     50,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Created).To(BeTrue())

			second, err := resolver.Resolve(ctx, claims.Request{
				LogicalName: "lab-agent-0-storage",
				Kind:        claims.KindVolume,
				Policy:      claims.PolicyReuseIfExists,
				SizeGiB:     50,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Created).To(BeFalse())
			Expect(second.ResourceID).To(Equal(first.ResourceID))
		})
	})

	Context("determinism", func() {
		It("produces byte-identical artifacts for identical inputs", func() {
			spec := k3stesting.NewSpecBuilder().
				WithOverlayVPN(true).
				WithOperatorCredentials().
				WithGitOps(true).
				WithBastion(true).
				WithSSHAllowedCIDRs("203.0.113.0/24").
				Build()

			a, err := Compose(ctx, spec, freshOptions())
			Expect(err).NotTo(HaveOccurred())
			b, err := Compose(ctx, spec, freshOptions())
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Rules).To(Equal(b.Rules))
			Expect(a.Manifests.Entries()).To(Equal(b.Manifests.Entries()))
			Expect(a.Scripts).To(HaveLen(len(b.Scripts)))
			for i := range a.Scripts {
				Expect(a.Scripts[i].Content).To(Equal(b.Scripts[i].Content))
			}
		})
	})

	Context("overlay join keys", func() {
		It("embeds a distinct key in every node script", func() {
			spec := k3stesting.NewSpecBuilder().WithOverlayVPN(true).WithBastion(true).Build()
			p, err := Compose(ctx, spec, freshOptions())
			Expect(err).NotTo(HaveOccurred())

			seen := map[string]bool{}
			for _, s := range p.Scripts {
				key := authKey(string(s.Content))
				Expect(key).NotTo(BeEmpty(), s.Node.Hostname)
				Expect(seen).NotTo(HaveKey(key))
				seen[key] = true
			}
		})
	})
})

func authKey(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if i := strings.Index(line, "--authkey="); i >= 0 {
			key, _, _ := strings.Cut(line[i:], " ")
			return key
		}
	}
	return ""
}
