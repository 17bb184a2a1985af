package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/ordersaga/internal/application/catalog"
	"github.com/xiebiao/ordersaga/pkg/response"
)

// CatalogHandler 下单页数据HTTP处理器
type CatalogHandler struct {
	listCatalogUseCase *catalog.ListCatalogUseCase
}

// NewCatalogHandler 创建下单页数据处理器
func NewCatalogHandler(listCatalogUseCase *catalog.ListCatalogUseCase) *CatalogHandler {
	return &CatalogHandler{listCatalogUseCase: listCatalogUseCase}
}

// ListCatalog 查询下单页数据
// @Summary      查询下单页数据
// @Description  返回全部用户(含余额)和商品(含现货)，用于观察Saga执行前后的资源变化
// @Tags         下单页
// @Produce      json
// @Success      200 {object} response.Response{data=catalog.CatalogView}
// @Router       /catalog [get]
func (h *CatalogHandler) ListCatalog(c *gin.Context) {
	view, err := h.listCatalogUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}
