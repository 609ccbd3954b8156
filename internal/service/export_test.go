package service_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/export"
	"github.com/kubev2v/migration-wave-planner/internal/service"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) Publish(_ context.Context, key, _ string, content []byte) (*export.Object, error) {
	f.keys = append(f.keys, key)
	return &export.Object{Bucket: "plans", Key: key, Size: int64(len(content))}, nil
}

var _ = Describe("export service", func() {
	var (
		ctx       context.Context
		projectID uuid.UUID
	)

	BeforeEach(func() {
		ctx = context.TODO()
		projectID = newProjectWithEstate(ctx, estate())
		_, err := service.NewCohortService(s, nil).CommitCohorts(ctx, projectID, mappers.CohortPlanForm{Strategy: "easiest_first", CohortCount: 2})
		Expect(err).To(BeNil())
		_, err = service.NewWaveService(s, nil).CommitWaves(ctx, projectID, mappers.WavePlanForm{Strategy: "by_tenant"})
		Expect(err).To(BeNil())
	})

	It("renders the committed plan as csv", func() {
		var buf bytes.Buffer
		name, err := service.NewExportService(s, nil).Export(ctx, projectID, export.FormatCSV, &buf)
		Expect(err).To(BeNil())
		Expect(name).To(Equal(fmt.Sprintf("%s/plan-v3.csv", projectID)))
		Expect(buf.String()).To(ContainSubstring("vm-a1"))
		Expect(buf.String()).NotTo(ContainSubstring("vm-e1"))
	})

	It("rejects an unknown format", func() {
		var buf bytes.Buffer
		_, err := service.NewExportService(s, nil).Export(ctx, projectID, export.Format("pdf"), &buf)
		var invalid *service.ErrInvalidRequest
		Expect(err).To(BeAssignableToTypeOf(invalid))
	})

	It("cannot publish without object storage", func() {
		_, err := service.NewExportService(s, nil).Publish(ctx, projectID, export.FormatXLSX)
		var unavailable *service.ErrExportUnavailable
		Expect(err).To(BeAssignableToTypeOf(unavailable))
	})

	It("publishes the rendered plan", func() {
		publisher := &fakePublisher{}
		object, err := service.NewExportService(s, publisher).Publish(ctx, projectID, export.FormatXLSX)
		Expect(err).To(BeNil())
		Expect(object.Key).To(Equal(fmt.Sprintf("%s/plan-v3.xlsx", projectID)))
		Expect(object.Size).To(BeNumerically(">", 0))
		Expect(publisher.keys).To(HaveLen(1))
	})
})
