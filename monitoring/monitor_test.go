package monitoring

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/dram"
	"github.com/sarchlab/cachesim/mem/memsys"
)

var _ = Describe("Monitor", func() {
	var (
		m       *Monitor
		handler http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		return rec
	}

	publish := func() {
		m.Publish(Snapshot{
			Cycle: 42,
			Components: []ComponentState{
				{Name: "MEMSYS", Stats: memsys.Stats{LoadAccess: 2, LoadDelay: 112}},
				{Name: "DCACHE", Stats: cache.Stats{ReadAccess: 5, ReadMiss: 1}},
				{Name: "DRAM", Stats: dram.Stats{ReadAccess: 1, ReadDelay: 100}},
			},
		})
	}

	BeforeEach(func() {
		m = NewMonitor()
		handler = m.Handler()
	})

	It("should list no component before the first snapshot", func() {
		rec := get("/api/list_components")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("[]"))
	})

	It("should list the published components", func() {
		publish()

		var names []string
		Expect(json.Unmarshal(get("/api/list_components").Body.Bytes(), &names)).
			To(Succeed())
		Expect(names).To(Equal([]string{"MEMSYS", "DCACHE", "DRAM"}))
	})

	It("should tell the cycle", func() {
		publish()

		Expect(get("/api/now").Body.String()).To(Equal(`{"now":42}`))
	})

	It("should serialize a component", func() {
		publish()

		rec := get("/api/component/DCACHE")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should return 404 for an unknown component", func() {
		publish()

		Expect(get("/api/component/L3CACHE").Code).To(Equal(http.StatusNotFound))
	})

	It("should reject a malformed field request", func() {
		Expect(get("/api/field/notjson").Code).To(Equal(http.StatusBadRequest))
	})

	It("should report progress bars", func() {
		bar := m.CreateProgressBar("core 0", 10)
		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)

		var bars []progressBarRsp
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
			To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("core 0"))
		Expect(bars[0].Finished).To(Equal(uint64(3)))
		Expect(bars[0].InProgress).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)
		Expect(get("/api/progress").Body.String()).To(Equal("[]"))
	})

	It("should export metrics", func() {
		publish()

		body := get("/metrics").Body.String()

		Expect(body).To(ContainSubstring("cachesim_cycle 42"))
		Expect(body).To(ContainSubstring(
			`cachesim_cache_accesses{cache="DCACHE",kind="read"} 5`))
		Expect(body).To(ContainSubstring(
			`cachesim_memsys_avg_delay_cycles{type="LOAD"} 56`))
		Expect(body).To(ContainSubstring(
			`cachesim_dram_accesses{kind="read"} 1`))
	})

	It("should report resources", func() {
		rec := get("/api/resource")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("memory_size"))
	})

	It("should serve the web page", func() {
		Expect(get("/").Body.String()).To(ContainSubstring("cachesim monitor"))
	})

	It("should serve the web page from an asset directory", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "index.html"),
			[]byte("local page"), 0o644)).To(Succeed())

		handler = m.WithAssetDir(dir).Handler()

		Expect(get("/").Body.String()).To(Equal("local page"))
		Expect(get("/api/list_components").Code).To(Equal(http.StatusOK))
	})

	It("should refuse well-known ports", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should not open a browser before the server starts", func() {
		Expect(m.OpenInBrowser()).NotTo(Succeed())
	})

	It("should serve over HTTP", func() {
		Expect(m.StartServer()).To(Succeed())
		DeferCleanup(func() {
			Expect(m.StopServer(context.Background())).To(Succeed())
		})

		publish()

		rsp, err := http.Get(m.URL() + "/api/now")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(Equal(`{"now":42}`))
	})
})
