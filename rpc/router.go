package rpc

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

func (rpc *RpcController) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithFormatter(ginLogFormatter), gin.Recovery())

	router.GET("/", rpc.writeListOfEndpoints)
	// init paths here
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/status", rpc.Status)

	// query API
	router.GET("/committees", rpc.Committees)
	router.GET("/committees/:id", rpc.Committee)
	router.GET("/active_committee", rpc.ActiveCommittee)
	router.GET("/threshold_key", rpc.ThresholdKey)
	router.GET("/events", rpc.Events)

	// manager API
	router.POST("/committees", rpc.AppendCommittee)
	router.POST("/committees/prune", rpc.PruneCommittees)
	router.POST("/threshold_key", rpc.SetThresholdKey)
	router.POST("/manager", rpc.SetManager)

	// verification API
	router.POST("/verify", rpc.VerifyQuorum)
	router.POST("/verify_ordered", rpc.VerifyQuorumOrdered)
	return router
}

var getEndpoints = map[string]string{
	"status":           "",
	"committees":       "",
	"active_committee": "",
	"threshold_key":    "",
	"events":           "from",
}

var postEndpoints = []string{
	"committees",
	"committees/prune",
	"threshold_key",
	"manager",
	"verify",
	"verify_ordered",
}

// writes a list of available rpc endpoints as an html page
func (rpc *RpcController) writeListOfEndpoints(c *gin.Context) {
	var names []string
	for name := range getEndpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := new(bytes.Buffer)
	buf.WriteString("<html><body>")
	buf.WriteString("<br>Available endpoints:<br>")
	for _, name := range names {
		link := fmt.Sprintf("http://%s/%s", c.Request.Host, name)
		if args := getEndpoints[name]; args != "" {
			link += "?" + args + "=_"
		}
		buf.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a></br>", link, link))
	}
	buf.WriteString(fmt.Sprintf("http://%s/committees/{id}</br>", c.Request.Host))

	buf.WriteString("<br>POST endpoints:<br>")
	for _, name := range postEndpoints {
		buf.WriteString(fmt.Sprintf("http://%s/%s</br>", c.Request.Host, name))
	}
	buf.WriteString("</body></html>")
	c.Data(http.StatusOK, "text/html", buf.Bytes())
}
